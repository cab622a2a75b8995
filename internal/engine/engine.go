// Package engine implements the Graph Engine (component C): set-edges
// and delete-edges over the path-scoped edge collection, including
// bridge handling and the optional prune walk (§4.3.1-§4.3.3).
//
// Grounded on the teacher's apoc/path (bounded traversal) and
// pkg/storage/memory.go's read-modify-write-then-store pattern for a
// single logical record; the reachability precondition and the
// recursive _data merge are new to the dictionary domain and have no
// direct teacher analogue, so they are built atop internal/graph and
// internal/datamerge instead.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/orneryd/dictionarydb/internal/coll"
	"github.com/orneryd/dictionarydb/internal/datamerge"
	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/dicthash"
	"github.com/orneryd/dictionarydb/internal/graph"
	"github.com/orneryd/dictionarydb/internal/retry"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// Outcome names one child's result from set-edges or delete-edges
// (§4.3.1 step 3, §4.3.2 step 1-3).
type Outcome string

const (
	Inserted Outcome = "inserted"
	Updated  Outcome = "updated"
	Existing Outcome = "existing"
	Deleted  Outcome = "deleted"
	Ignored  Outcome = "ignored"
)

// HandleChecker reports whether a handle names an existing document.
// Satisfied by internal/term.Store without engine depending on it
// concretely, so the engine can be exercised against a bare store in
// tests.
type HandleChecker interface {
	Exists(handle string) (bool, error)
}

// Engine is the Graph Engine, built over an edge store and a handle
// existence checker (the term collection, per §4.3.1 step 1).
type Engine struct {
	edges store.EdgeStore
	graph *graph.Graph
	terms HandleChecker
}

// New builds an Engine. maxDepth bounds reachability checks and prune
// walks (§4.2, default store.DefaultMaxDepth).
func New(edges store.EdgeStore, terms HandleChecker, maxDepth int) *Engine {
	return &Engine{edges: edges, graph: graph.New(edges, maxDepth), terms: terms}
}

// ChildInput is one entry of the set/delete-edges children list. Data
// nil is the §4.3.1 top-level sentinel meaning "reset _data to empty
// object" rather than "no change requested".
type ChildInput struct {
	Handle string
	Data   map[string]any
}

// ChildResult is one child's outcome, carrying the edge as it now
// stands (zero value when Ignored).
type ChildResult struct {
	Handle  string
	Outcome Outcome
	Edge    store.Edge
}

func (e *Engine) checkHandlesExist(handles ...string) error {
	seen := make(map[string]bool, len(handles))
	for _, h := range handles {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		ok, err := e.terms.Exists(h)
		if err != nil {
			return err
		}
		if !ok {
			return dicterr.New(dicterr.InvalidReference, fmt.Sprintf("handle %q does not exist", h))
		}
	}
	return nil
}

func endpointsOf(direction bool, parent, child string) (src, dst string) {
	if direction {
		return child, parent
	}
	return parent, child
}

// SetEdgesRequest is the §4.3.1 input shape. Children is a slice, not a
// map, so that "children are processed in input order" (§5) holds.
type SetEdgesRequest struct {
	Root                string
	Parent              string
	Predicate           string
	Direction           bool
	Children            []ChildInput
	TraversalPredicates map[string]bool
	Save                bool
}

// SetEdgesResult is the full per-child breakdown of a set-edges call.
type SetEdgesResult struct {
	Results  []ChildResult
	Inserted []string
	Updated  []string
	Existing []string
}

func (r *SetEdgesResult) record(handle string, outcome Outcome, edge store.Edge) {
	r.Results = append(r.Results, ChildResult{Handle: handle, Outcome: outcome, Edge: edge})
	switch outcome {
	case Inserted:
		r.Inserted = append(r.Inserted, handle)
	case Updated:
		r.Updated = append(r.Updated, handle)
	case Existing:
		r.Existing = append(r.Existing, handle)
	}
}

// SetEdges implements §4.3.1: verify handles exist, check reachability
// of parent from/to root, then insert-or-merge each child edge. When
// req.Save is false the store is never touched — the result describes
// the plan only.
func (e *Engine) SetEdges(ctx context.Context, req SetEdgesRequest) (*SetEdgesResult, error) {
	handles := []string{req.Root, req.Parent}
	for _, c := range req.Children {
		handles = append(handles, c.Handle)
	}
	if err := e.checkHandlesExist(handles...); err != nil {
		return nil, err
	}

	reachable, err := e.graph.Reachable(ctx, req.Root, req.Parent, req.Predicate, req.Direction, req.TraversalPredicates)
	if err != nil {
		return nil, err
	}
	if !reachable {
		return nil, dicterr.New(dicterr.ParentNotInGraph,
			fmt.Sprintf("parent %q is not reachable from root %q under %q", req.Parent, req.Root, req.Predicate))
	}

	result := &SetEdgesResult{}
	var toInsert, toReplace []store.Edge

	for _, child := range req.Children {
		src, dst := endpointsOf(req.Direction, req.Parent, child.Handle)
		key := dicthash.EdgeKey(src, req.Predicate, dst)

		existing, err := e.edges.GetEdge(key)
		if errors.Is(err, store.ErrNotFound) {
			data, _ := dataForInsert(child.Data)
			edge := store.Edge{Key: key, From: src, To: dst, Predicate: req.Predicate, Path: []string{req.Root}, Data: data}
			toInsert = append(toInsert, edge)
			result.record(child.Handle, Inserted, edge)
			continue
		}
		if err != nil {
			return nil, err
		}

		edge, outcome := mergeExistingEdge(existing, req.Root, child.Data)
		if outcome == Updated {
			toReplace = append(toReplace, edge)
		}
		result.record(child.Handle, outcome, edge)
	}

	if req.Save {
		if err := e.applyWrites(toInsert, toReplace, nil); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func dataForInsert(childData map[string]any) (map[string]any, bool) {
	if childData == nil {
		return map[string]any{}, false
	}
	return datamerge.Apply(map[string]any{}, childData)
}

// mergeExistingEdge applies step 3 of §4.3.1 to an edge that already
// exists: append root to _path if absent, merge (or reset) _data, and
// report whether anything actually changed.
func mergeExistingEdge(existing store.Edge, root string, childData map[string]any) (store.Edge, Outcome) {
	edge := existing.Clone()
	changed := false

	if !coll.Contains(edge.Path, root) {
		edge.Path = coll.Insert(edge.Path, root)
		changed = true
	}

	var newData map[string]any
	var dataChanged bool
	if childData == nil {
		newData, dataChanged = datamerge.Reset(edge.Data)
	} else {
		newData, dataChanged = datamerge.Apply(edge.Data, childData)
	}
	if dataChanged {
		edge.Data = newData
		changed = true
	}

	if !changed {
		return edge, Existing
	}
	return edge, Updated
}

func (e *Engine) applyWrites(toInsert, toReplace []store.Edge, toDelete []string) error {
	return retry.Do(func(attempt int) error {
		if len(toInsert) > 0 {
			if err := e.edges.InsertEdges(toInsert); err != nil {
				return err
			}
		}
		if len(toReplace) > 0 {
			if err := e.edges.ReplaceEdges(toReplace); err != nil {
				return err
			}
		}
		if len(toDelete) > 0 {
			if err := e.edges.DeleteEdges(toDelete); err != nil {
				return err
			}
		}
		return nil
	})
}

