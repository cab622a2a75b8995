package engine

import (
	"context"

	"github.com/orneryd/dictionarydb/internal/graph"
)

// SetBridge creates or refreshes the single bridge edge (root, bridge,
// bridged) — or its reverse (bridged, bridge, root), when direction is
// true — connecting a new root
// to an already-defined sub-graph (§4.3.3). It reduces to an ordinary
// set-edges call with a single child and the fixed bridge predicate.
func (e *Engine) SetBridge(ctx context.Context, root, bridged string, direction bool, data map[string]any, save bool) (*SetEdgesResult, error) {
	return e.SetEdges(ctx, SetEdgesRequest{
		Root:      root,
		Parent:    root,
		Predicate: graph.PredicateBridge,
		Direction: direction,
		Children:  []ChildInput{{Handle: bridged, Data: data}},
		Save:      save,
	})
}

// DeleteBridge removes root from the bridge edge's path set and, when
// prune is true, walks the bridged sub-graph under predicate to remove
// root from every edge it still roots (§4.3.3).
func (e *Engine) DeleteBridge(ctx context.Context, root, bridged, predicate string, direction, prune, save bool) (*DeleteEdgesResult, error) {
	return e.DeleteEdges(ctx, DeleteEdgesRequest{
		Root:                root,
		Parent:              root,
		Predicate:           graph.PredicateBridge,
		Direction:           direction,
		Children:            []ChildInput{{Handle: bridged}},
		TraversalPredicates: map[string]bool{predicate: true},
		Prune:               prune,
		Save:                save,
	})
}
