package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/slugid"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// SequentialIDs returns a generator yielding "<prefix>-0001", "<prefix>-0002"...
// so graphs built in tests are reproducible.
func SequentialIDs(prefix string) slugid.Generator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%04d", prefix, n.Add(1))
	}
}

// Components is a small project: two published libraries, one depending on
// the other, and a sample app with explicit variants.
func Components() []buildconfig.Component {
	return []buildconfig.Component{
		{Name: "concept-engine", Path: "components/concept/engine", Publish: true},
		{
			Name:         "browser-engine-gecko",
			Path:         "components/browser/engine-gecko",
			Publish:      true,
			Dependencies: []string{"concept-engine"},
		},
		{
			Name: "samples-browser",
			Path: "samples/browser",
			Variants: []buildconfig.Variant{
				{Name: "System"},
				{Name: "GeckoBeta"},
				{Name: "GeckoNightly", BuildType: "nightly"},
			},
		},
	}
}

// Overrides matches Components: the sample app lists its variants and folds
// the GeckoNightly lint into the matching build.
func Overrides() map[string]buildconfig.ModuleOverride {
	return map[string]buildconfig.ModuleOverride{
		"samples-browser": {
			Module:          "samples-browser",
			AssembleOnly:    []string{"System"},
			AssembleAndTest: []string{"GeckoBeta", "GeckoNightly"},
			LintTask:        "lintGeckoNightly",
		},
	}
}

// Task returns a minimal task with the given dependencies keyed by label.
func Task(label, kind string, attrs map[string]any, deps ...string) *taskgraph.Task {
	if attrs == nil {
		attrs = map[string]any{}
	}
	t := &taskgraph.Task{
		Label:        label,
		Kind:         kind,
		Attributes:   attrs,
		Dependencies: map[string]string{},
		TaskID:       "id-" + label,
	}
	for _, d := range deps {
		t.Dependencies[d] = d
	}
	return t
}

// Graph builds a graph from tasks and panics on invalid input.
func Graph(tasks ...*taskgraph.Task) *taskgraph.Graph {
	g, err := taskgraph.New(tasks...)
	if err != nil {
		panic(err)
	}
	return g
}
