package graph

import (
	"context"
	"testing"

	"github.com/orneryd/dictionarydb/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeKey(src, pred, dst string) string {
	return pred + ":" + src + "->" + dst // distinct enough for test fixtures
}

func insertChain(t *testing.T, s store.EdgeStore, edges []store.Edge) {
	t.Helper()
	require.NoError(t, s.InsertEdges(edges))
}

func TestReachableFindsDirectChild(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("root", "enum-of", "a"), From: "root", To: "a", Predicate: "enum-of", Path: []string{"root"}},
	})

	ok, err := g.Reachable(context.Background(), "root", "a", "enum-of", false, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReachableFindsGrandchildUnderReverseDirection(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	// direction=true edges point child->parent (§3.6), so a two-hop
	// chain under root is stored as b->a and a->root.
	insertChain(t, s, []store.Edge{
		{Key: edgeKey("a", "enum-of", "root"), From: "a", To: "root", Predicate: "enum-of", Path: []string{"root"}},
		{Key: edgeKey("b", "enum-of", "a"), From: "b", To: "a", Predicate: "enum-of", Path: []string{"root"}},
	})

	ok, err := g.Reachable(context.Background(), "root", "b", "enum-of", true, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Reachable(context.Background(), "root", "b", "enum-of", false, nil)
	require.NoError(t, err)
	assert.False(t, ok, "the wrong traversal sense must not find b")
}

func TestReachableToleratesSectionAndBridge(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("root", "section-of", "mid"), From: "root", To: "mid", Predicate: "section-of", Path: []string{"root"}},
		{Key: edgeKey("mid", "enum-of", "leaf"), From: "mid", To: "leaf", Predicate: "enum-of", Path: []string{"root"}},
	})

	ok, err := g.Reachable(context.Background(), "root", "leaf", "enum-of", false, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReachableFailsWhenNoPathExists(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("root", "enum-of", "a"), From: "root", To: "a", Predicate: "enum-of", Path: []string{"root"}},
	})

	ok, err := g.Reachable(context.Background(), "root", "unrelated", "enum-of", false, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDescendantsSkipsSectionAndBridgeVertices(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("root", "section-of", "mid"), From: "root", To: "mid", Predicate: "section-of", Path: []string{"root"}},
		{Key: edgeKey("mid", "enum-of", "a"), From: "mid", To: "a", Predicate: "enum-of", Path: []string{"root"}},
		{Key: edgeKey("mid", "enum-of", "b"), From: "mid", To: "b", Predicate: "enum-of", Path: []string{"root"}},
	})

	descendants, err := g.Descendants(context.Background(), "root", "enum-of")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, descendants)
}

func TestTreeBuildsNestedStructure(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("root", "enum-of", "a"), From: "root", To: "a", Predicate: "enum-of", Path: []string{"root"}},
		{Key: edgeKey("a", "enum-of", "b"), From: "a", To: "b", Predicate: "enum-of", Path: []string{"root"}},
	})

	tree, err := g.Tree(context.Background(), "root", "enum-of", 10)
	require.NoError(t, err)
	assert.Equal(t, "root", tree.Vertex)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "a", tree.Children[0].Vertex)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "b", tree.Children[0].Children[0].Vertex)
}

func TestRequiredClosureIncludesStartingSet(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("field-a", "required-indicator", "field-b"), From: "field-a", To: "field-b", Predicate: "required-indicator", Path: []string{"field-a"}},
	})

	closure, err := g.RequiredClosure(context.Background(), []string{"field-a"}, []string{"required-indicator", "required-metadata"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"field-a", "field-b"}, closure)
}

func TestRequiredClosureIsMonotonic(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	g := New(s, 10)

	insertChain(t, s, []store.Edge{
		{Key: edgeKey("a", "required-indicator", "b"), From: "a", To: "b", Predicate: "required-indicator", Path: []string{"a"}},
		{Key: edgeKey("c", "required-indicator", "d"), From: "c", To: "d", Predicate: "required-indicator", Path: []string{"c"}},
	})

	small, err := g.RequiredClosure(context.Background(), []string{"a"}, []string{"required-indicator"})
	require.NoError(t, err)
	big, err := g.RequiredClosure(context.Background(), []string{"a", "c"}, []string{"required-indicator"})
	require.NoError(t, err)

	for _, v := range small {
		assert.Contains(t, big, v)
	}
}
