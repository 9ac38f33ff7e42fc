package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// AssertWellFormed checks the graph invariants independently of
// taskgraph.New: every dependency resolves and a topological order exists
// that places each task after all of its dependencies.
func AssertWellFormed(t *testing.T, g *taskgraph.Graph) {
	t.Helper()

	for _, task := range g.Tasks() {
		for name, label := range task.Dependencies {
			require.True(t, g.Has(label), "task %q dependency %q points at missing label %q", task.Label, name, label)
		}
	}

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, g.Len())
	position := make(map[string]int, len(order))
	for i, label := range order {
		position[label] = i
	}
	for _, task := range g.Tasks() {
		for _, dep := range task.DependencyLabels() {
			require.Less(t, position[dep], position[task.Label], "%q must come after %q", task.Label, dep)
		}
	}
}

// Labels returns the labels of tasks matching keep, in graph order.
func Labels(g *taskgraph.Graph, keep func(*taskgraph.Task) bool) []string {
	var out []string
	for _, task := range g.Tasks() {
		if keep(task) {
			out = append(out, task.Label)
		}
	}
	return out
}
