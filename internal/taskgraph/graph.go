// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package taskgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/taskgraphgo/internal/dag"
)

var (
	// ErrDanglingDependency means a task depends on a label not in the graph.
	ErrDanglingDependency = errors.New("dangling dependency")
	// ErrDuplicateLabel means two tasks share a label.
	ErrDuplicateLabel = errors.New("duplicate task label")
	// ErrInvalidTask means a task lacks a label or task id.
	ErrInvalidTask = errors.New("invalid task")
	// ErrCycle means the dependency relation is not acyclic.
	ErrCycle = dag.ErrCycle
)

// Graph is an immutable, ordered collection of tasks keyed by label.
type Graph struct {
	tasks map[string]*Task
	order []string
	topo  *dag.Graph
}

// New validates the tasks and returns a graph holding private copies of
// them. Labels keep the order in which they were passed.
func New(tasks ...*Task) (*Graph, error) {
	g := &Graph{
		tasks: make(map[string]*Task, len(tasks)),
		order: make([]string, 0, len(tasks)),
		topo:  dag.New(),
	}

	ids := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if t == nil || t.Label == "" {
			return nil, fmt.Errorf("%w: task without a label", ErrInvalidTask)
		}
		if t.TaskID == "" {
			return nil, fmt.Errorf("%w: task %q has no task id", ErrInvalidTask, t.Label)
		}
		if _, exists := g.tasks[t.Label]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, t.Label)
		}
		if other, exists := ids[t.TaskID]; exists {
			return nil, fmt.Errorf("%w: tasks %q and %q share task id %s", ErrInvalidTask, other, t.Label, t.TaskID)
		}
		ids[t.TaskID] = t.Label
		g.tasks[t.Label] = t.Clone()
		g.order = append(g.order, t.Label)
		g.topo.AddNode(t.Label)
	}

	for _, label := range g.order {
		t := g.tasks[label]
		names := make([]string, 0, len(t.Dependencies))
		for name := range t.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			depLabel := t.Dependencies[name]
			if !g.topo.Has(depLabel) {
				return nil, fmt.Errorf("%w: task %q dependency %q refers to unknown label %q", ErrDanglingDependency, label, name, depLabel)
			}
			if err := g.topo.AddEdge(depLabel, label); err != nil {
				return nil, fmt.Errorf("task %q dependency %q: %w", label, name, err)
			}
		}
	}

	if err := g.topo.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating task graph: %w", err)
	}
	return g, nil
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// Labels returns all labels in graph order.
func (g *Graph) Labels() []string {
	return append([]string(nil), g.order...)
}

// Has reports whether the label exists in the graph.
func (g *Graph) Has(label string) bool {
	_, ok := g.tasks[label]
	return ok
}

// Get returns a copy of the task with the given label.
func (g *Graph) Get(label string) (*Task, bool) {
	t, ok := g.tasks[label]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Tasks returns copies of all tasks in graph order.
func (g *Graph) Tasks() []*Task {
	out := make([]*Task, 0, len(g.order))
	for _, label := range g.order {
		out = append(out, g.tasks[label].Clone())
	}
	return out
}

// TaskID returns the task id for a label.
func (g *Graph) TaskID(label string) (string, bool) {
	t, ok := g.tasks[label]
	if !ok {
		return "", false
	}
	return t.TaskID, true
}

// LabelToTaskID returns the derived label -> task id mapping.
func (g *Graph) LabelToTaskID() map[string]string {
	m := make(map[string]string, len(g.order))
	for _, label := range g.order {
		m[label] = g.tasks[label].TaskID
	}
	return m
}

// Dependents returns the sorted labels of tasks that depend on label.
func (g *Graph) Dependents(label string) ([]string, error) {
	return g.topo.Dependents(label)
}

// TopologicalOrder returns labels with every task after its dependencies.
func (g *Graph) TopologicalOrder() ([]string, error) {
	return g.topo.TopologicalOrder()
}

// Amend returns a new graph holding this graph's tasks followed by the given
// ones. The receiver is left untouched.
func (g *Graph) Amend(tasks ...*Task) (*Graph, error) {
	all := make([]*Task, 0, len(g.order)+len(tasks))
	for _, label := range g.order {
		all = append(all, g.tasks[label])
	}
	all = append(all, tasks...)
	amended, err := New(all...)
	if err != nil {
		return nil, fmt.Errorf("amending task graph: %w", err)
	}
	return amended, nil
}

// Closure returns a new graph holding the given labels and everything they
// transitively depend on, in this graph's order.
func (g *Graph) Closure(labels ...string) (*Graph, error) {
	keep, err := g.topo.Ancestors(labels...)
	if err != nil {
		return nil, fmt.Errorf("computing closure: %w", err)
	}
	subset := make([]*Task, 0, len(keep))
	for _, label := range keep {
		subset = append(subset, g.tasks[label])
	}
	return New(subset...)
}
