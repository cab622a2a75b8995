package engine

import (
	"context"
	"testing"

	"github.com/orneryd/dictionarydb/internal/graph"
	"github.com/orneryd/dictionarydb/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBridgeCreatesBridgeEdge(t *testing.T) {
	edges := store.NewMemoryStore()
	defer edges.Close()
	e := New(edges, allKnown("new-root", "shared-subtree"), 10)

	result, err := e.SetBridge(context.Background(), "new-root", "shared-subtree", false, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared-subtree"}, result.Inserted)
	assert.Equal(t, graph.PredicateBridge, result.Results[0].Edge.Predicate)
}

func TestDeleteBridgeRemovesRootFromBridgeEdge(t *testing.T) {
	edges := store.NewMemoryStore()
	defer edges.Close()
	e := New(edges, allKnown("new-root", "shared-subtree"), 10)

	_, err := e.SetBridge(context.Background(), "new-root", "shared-subtree", false, nil, true)
	require.NoError(t, err)

	result, err := e.DeleteBridge(context.Background(), "new-root", "shared-subtree", "enum-of", false, false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared-subtree"}, result.Deleted)
}
