package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerDocumentCRUD(t *testing.T) {
	s := newTestBadgerStore(t)

	doc := Document{"_lid": "test", "_gid": "test"}
	require.NoError(t, s.Insert("terms", "test", doc))

	err := s.Insert("terms", "test", doc)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.Get("terms", "test")
	require.NoError(t, err)
	assert.Equal(t, "test", got["_lid"])

	require.NoError(t, s.Update("terms", "test", Document{"_name": "Test"}))
	got, _ = s.Get("terms", "test")
	assert.Equal(t, "Test", got["_name"])
	assert.Equal(t, "test", got["_lid"])

	require.NoError(t, s.Delete("terms", "test"))
	_, err = s.Get("terms", "test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerLookupByFieldIndexesListValues(t *testing.T) {
	s := newTestBadgerStore(t)

	require.NoError(t, s.Insert("terms", "test-01", Document{
		"_lid": "test-01",
		"_gid": "test-01",
		"_aid": []any{"official-01", "alt-01"},
	}))

	handles, err := s.LookupByField("terms", "_aid", "alt-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"test-01"}, handles)

	handles, err = s.LookupByField("terms", "_gid", "test-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"test-01"}, handles)
}

func TestBadgerLookupByFieldBuildsIndexForPreexistingDocuments(t *testing.T) {
	s := newTestBadgerStore(t)

	require.NoError(t, s.Insert("terms", "a", Document{"_gid": "a", "_status": "active"}))
	require.NoError(t, s.Insert("terms", "b", Document{"_gid": "b", "_status": "retired"}))

	handles, err := s.LookupByField("terms", "_status", "active")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, handles)
}

func TestBadgerQueryPagination(t *testing.T) {
	s := newTestBadgerStore(t)

	for _, h := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Insert("terms", h, Document{"_lid": h}))
	}

	page, err := s.Query("terms", nil, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
}

func TestBadgerEdgeInsertIsUseExisting(t *testing.T) {
	s := newTestBadgerStore(t)

	key := edgeKeyOf("root", "enum-of", "child")
	e := Edge{Key: key, From: "root", To: "child", Predicate: "enum-of", Path: []string{"root"}}

	require.NoError(t, s.InsertEdges([]Edge{e}))

	conflicting := e
	conflicting.Path = []string{"other-root"}
	require.NoError(t, s.InsertEdges([]Edge{conflicting}))

	got, err := s.GetEdge(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, got.Path)
}

func TestBadgerTraverseRespectsDirectionAndPredicateSet(t *testing.T) {
	s := newTestBadgerStore(t)

	edges := []Edge{
		{Key: edgeKeyOf("root", "enum-of", "a"), From: "root", To: "a", Predicate: "enum-of", Path: []string{"root"}},
		{Key: edgeKeyOf("a", "enum-of", "b"), From: "a", To: "b", Predicate: "enum-of", Path: []string{"root"}},
		{Key: edgeKeyOf("a", "section-of", "c"), From: "a", To: "c", Predicate: "section-of", Path: []string{"root"}},
	}
	require.NoError(t, s.InsertEdges(edges))

	steps, err := s.Traverse(context.Background(), "root", false, 1, 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	steps, err = s.Traverse(context.Background(), "root", false, 1, 10, map[string]bool{"enum-of": true}, nil)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	for _, st := range steps {
		assert.Equal(t, "enum-of", st.Edge.Predicate)
	}

	steps, err = s.Traverse(context.Background(), "b", true, 1, 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].Vertex)
	assert.Equal(t, "root", steps[1].Vertex)
}

func TestBadgerDeleteEdgesRemovesAdjacencyIndex(t *testing.T) {
	s := newTestBadgerStore(t)

	key := edgeKeyOf("root", "enum-of", "a")
	e := Edge{Key: key, From: "root", To: "a", Predicate: "enum-of", Path: []string{"root"}}
	require.NoError(t, s.InsertEdges([]Edge{e}))

	require.NoError(t, s.DeleteEdges([]string{key}))

	_, err := s.GetEdge(key)
	assert.ErrorIs(t, err, ErrNotFound)

	steps, err := s.Traverse(context.Background(), "root", false, 1, 10, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestBadgerCloseRejectsFurtherOperations(t *testing.T) {
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get("terms", "anything")
	assert.ErrorIs(t, err, ErrClosed)
}
