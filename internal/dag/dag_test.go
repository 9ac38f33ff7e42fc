package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.NotNil(t, nodeA.deps)
	assert.NotNil(t, nodeA.dependents)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)
	assert.Equal(t, []string{"a"}, g.order)

	g.AddNode("b")
	assert.Len(t, g.nodes, 2)
	assert.True(t, g.Has("b"))
	assert.False(t, g.Has("c"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("longer cycle is detected and named", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a"))

		err := g.DetectCycles()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCycle))
		assert.ErrorContains(t, err, "a -> b -> c -> a")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		g.AddNode("x")
		g.AddNode("y")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "x"))

		assert.ErrorIs(t, g.DetectCycles(), ErrCycle)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("dependencies come first, ties keep insertion order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"sign", "build-b", "build-a", "barrier"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("build-a", "barrier"))
		require.NoError(t, g.AddEdge("build-b", "barrier"))
		require.NoError(t, g.AddEdge("barrier", "sign"))
		require.NoError(t, g.AddEdge("build-a", "sign"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"build-b", "build-a", "barrier", "sign"}, order)
	})

	t.Run("cyclic graph fails", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))

		_, err := g.TopologicalOrder()
		assert.ErrorIs(t, err, ErrCycle)
	})
}

func TestAncestors(t *testing.T) {
	g := New()
	for _, id := range []string{"image", "build", "sign", "lint"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("image", "build"))
	require.NoError(t, g.AddEdge("build", "sign"))

	got, err := g.Ancestors("sign")
	require.NoError(t, err)
	assert.Equal(t, []string{"image", "build", "sign"}, got)

	got, err = g.Ancestors("lint", "build")
	require.NoError(t, err)
	assert.Equal(t, []string{"image", "build", "lint"}, got)

	_, err = g.Ancestors("missing")
	assert.ErrorContains(t, err, "node not found")
}
