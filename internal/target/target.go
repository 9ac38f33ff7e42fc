// Package target selects the labels of a full task graph that a decision run
// actually submits.
//
// Every filter is read-only: it either returns a label set in graph order or
// a terminal error, never a partial result.
package target

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

var (
	// ErrUnknownMethod is returned for an unregistered target tasks method.
	ErrUnknownMethod = errors.New("unknown target tasks method")
	// ErrVersionParse means a tracked version could not be extracted.
	ErrVersionParse = errors.New("cannot parse version")
)

// Filter selects labels from a graph.
type Filter interface {
	Select(ctx context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(ctx context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error)

// Select implements Filter.
func (f FilterFunc) Select(ctx context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error) {
	return f(ctx, g, params)
}

// Registry maps target tasks method names to filters.
type Registry struct {
	filters map[string]Filter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]Filter)}
}

// Register adds a filter under name, replacing any previous one.
func (r *Registry) Register(name string, f Filter) {
	r.filters[name] = f
}

// Get returns the filter registered under name.
func (r *Registry) Get(name string) (Filter, error) {
	f, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownMethod, name, r.Names())
	}
	return f, nil
}

// Names returns the registered method names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for n := range r.filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// selectTasks returns, in graph order, the labels of tasks matching keep.
func selectTasks(g *taskgraph.Graph, keep func(*taskgraph.Task) bool) []string {
	out := []string{}
	for _, t := range g.Tasks() {
		if keep(t) {
			out = append(out, t.Label)
		}
	}
	return out
}
