package engine

import (
	"context"
	"errors"

	"github.com/orneryd/dictionarydb/internal/coll"
	"github.com/orneryd/dictionarydb/internal/datamerge"
	"github.com/orneryd/dictionarydb/internal/dicthash"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// DeleteEdgesRequest is the §4.3.2 input shape: the same addressing as
// set-edges, plus Prune.
type DeleteEdgesRequest struct {
	Root                string
	Parent              string
	Predicate           string
	Direction           bool
	Children            []ChildInput
	TraversalPredicates map[string]bool
	Prune               bool
	Save                bool
}

// DeleteEdgesResult is the per-child breakdown of a delete-edges call.
type DeleteEdgesResult struct {
	Results []ChildResult
	Deleted []string
	Updated []string
	Ignored []string
}

func (r *DeleteEdgesResult) record(handle string, outcome Outcome, edge store.Edge) {
	r.Results = append(r.Results, ChildResult{Handle: handle, Outcome: outcome, Edge: edge})
	switch outcome {
	case Deleted:
		r.Deleted = append(r.Deleted, handle)
	case Updated:
		r.Updated = append(r.Updated, handle)
	case Ignored:
		r.Ignored = append(r.Ignored, handle)
	}
}

// DeleteEdges implements §4.3.2: remove root from each child edge's
// path set, scheduling a delete when the path set empties out and a
// replace otherwise, optionally pruning the dangling branch left behind
// a deleted edge.
func (e *Engine) DeleteEdges(ctx context.Context, req DeleteEdgesRequest) (*DeleteEdgesResult, error) {
	result := &DeleteEdgesResult{}
	var toDelete []string
	var toReplace []store.Edge

	for _, child := range req.Children {
		src, dst := endpointsOf(req.Direction, req.Parent, child.Handle)
		key := dicthash.EdgeKey(src, req.Predicate, dst)

		existing, err := e.edges.GetEdge(key)
		if errors.Is(err, store.ErrNotFound) {
			result.record(child.Handle, Ignored, store.Edge{})
			continue
		}
		if err != nil {
			return nil, err
		}
		if !coll.Contains(existing.Path, req.Root) {
			result.record(child.Handle, Ignored, existing)
			continue
		}

		newPath := coll.Remove(existing.Path, req.Root)
		if len(newPath) == 0 {
			toDelete = append(toDelete, key)
			result.record(child.Handle, Deleted, existing)

			if req.Prune {
				pruned, err := e.pruneBranch(ctx, child.Handle, req.Root, req.Predicate, req.Direction, req.TraversalPredicates)
				if err != nil {
					return nil, err
				}
				toDelete = append(toDelete, pruned.deleteKeys...)
				toReplace = append(toReplace, pruned.replaceEdges...)
				result.Results = append(result.Results, pruned.results...)
				for _, k := range pruned.deleteHandles {
					result.Deleted = append(result.Deleted, k)
				}
				for _, k := range pruned.updateHandles {
					result.Updated = append(result.Updated, k)
				}
			}
			continue
		}

		edge := existing.Clone()
		edge.Path = newPath
		data, _ := applyChildData(edge.Data, child.Data)
		edge.Data = data
		toReplace = append(toReplace, edge)
		result.record(child.Handle, Updated, edge)
	}

	if req.Save {
		if err := e.applyWrites(nil, toReplace, toDelete); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func applyChildData(data, childData map[string]any) (map[string]any, bool) {
	if childData == nil {
		return datamerge.Reset(data)
	}
	return datamerge.Apply(data, childData)
}

type prunedBranch struct {
	deleteKeys    []string
	replaceEdges  []store.Edge
	results       []ChildResult
	deleteHandles []string
	updateHandles []string
}

// pruneBranch walks outward from start (the just-deleted child) along
// predicate (plus traversalPredicates), pruning expansion at edges
// whose path set no longer contains root, and removing root from every
// visited edge that still carries it (§4.3.2 step 4). direction matches
// the same SetEdges/DeleteEdges direction flag Reachable honors: under
// direction=true a child's edge points at its parent, so start's own
// descendants sit on its incoming side, not its outgoing one.
func (e *Engine) pruneBranch(ctx context.Context, start, root, predicate string, direction bool, traversalPredicates map[string]bool) (*prunedBranch, error) {
	allowed := make(map[string]bool, len(traversalPredicates)+1)
	allowed[predicate] = true
	for p := range traversalPredicates {
		allowed[p] = true
	}

	prune := func(edge store.Edge) bool {
		return !coll.Contains(edge.Path, root)
	}

	steps, err := e.edges.Traverse(ctx, start, direction, 1, e.graph.MaxDepth(), allowed, prune)
	if err != nil {
		return nil, err
	}

	out := &prunedBranch{}
	for _, st := range steps {
		if !coll.Contains(st.Edge.Path, root) {
			continue
		}
		newPath := coll.Remove(st.Edge.Path, root)
		if len(newPath) == 0 {
			out.deleteKeys = append(out.deleteKeys, st.Edge.Key)
			out.deleteHandles = append(out.deleteHandles, st.Vertex)
			out.results = append(out.results, ChildResult{Handle: st.Vertex, Outcome: Deleted, Edge: st.Edge})
			continue
		}
		edge := st.Edge.Clone()
		edge.Path = newPath
		out.replaceEdges = append(out.replaceEdges, edge)
		out.updateHandles = append(out.updateHandles, st.Vertex)
		out.results = append(out.results, ChildResult{Handle: st.Vertex, Outcome: Updated, Edge: edge})
	}
	return out, nil
}
