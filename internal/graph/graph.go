// Package graph provides the higher-level traversal helpers the Graph
// Engine (C) and Dictionary Resolver (D) build on, atop the bare
// pkg/store.EdgeStore.Traverse primitive of §4.2 — reachability checks,
// descendant enumeration, and bridge-aware walks.
//
// Grounded on the teacher's apoc/path (SubgraphNodes/ShortestPath — a
// bounded BFS/DFS over an Engine) and apoc/paths (path-centric variants
// of the same); here generalized to the edge store's direction flag and
// predicate-set filter instead of Cypher relationship-type syntax.
package graph

import (
	"context"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// Predicates are the two fixed predicate names the functional
// taxonomy (§3.6) always tolerates alongside whatever functional
// predicate a caller names.
const (
	PredicateSection = "section-of"
	PredicateBridge  = "bridge-of"
)

// Graph wraps an EdgeStore with the bounded-traversal helpers the
// engine and resolver need.
type Graph struct {
	edges    store.EdgeStore
	maxDepth int
}

// New wraps edges with a default traversal depth bound (§4.2, §5).
func New(edges store.EdgeStore, maxDepth int) *Graph {
	if maxDepth <= 0 {
		maxDepth = store.DefaultMaxDepth
	}
	return &Graph{edges: edges, maxDepth: maxDepth}
}

// MaxDepth returns the traversal depth bound this graph was built with.
func (g *Graph) MaxDepth() int { return g.maxDepth }

func tolerated(predicate string, extra map[string]bool) map[string]bool {
	set := map[string]bool{predicate: true, PredicateSection: true, PredicateBridge: true}
	for p := range extra {
		set[p] = true
	}
	return set
}

// Reachable reports whether parent is reachable from root under
// direction, tolerating predicate plus traversalPredicates plus
// section/bridge (§4.3.1 step 2). direction=false walks root->...->
// parent outward (parent->children edges, Traverse's outgoing sense);
// direction=true walks the edges the opposite sense (children->parent
// edges, Traverse's incoming sense), matching the set-edges direction
// flag's meaning (§3.6): under direction=true a child's edge points at
// its parent, so root's descendants sit on its incoming side.
func (g *Graph) Reachable(ctx context.Context, root, parent, predicate string, direction bool, traversalPredicates map[string]bool) (bool, error) {
	if root == parent {
		return true, nil
	}
	allowed := tolerated(predicate, traversalPredicates)
	steps, err := g.edges.Traverse(ctx, root, direction, 1, g.maxDepth, allowed, nil)
	if err != nil {
		return false, wrapDepth(err)
	}
	for _, st := range steps {
		if st.Vertex == parent {
			return true, nil
		}
	}
	return false, nil
}

func wrapDepth(err error) error {
	if err == context.DeadlineExceeded || err == context.Canceled {
		return dicterr.Wrap(dicterr.DepthExceeded, "traversal exceeded its bound", err)
	}
	return err
}

// Descendants returns every distinct vertex reachable from root by
// predicate alone, tolerating section/bridge (§4.4 enumeration_keys/
// enumeration_terms: "flat list of all descendants... tolerating
// section/bridge").
func (g *Graph) Descendants(ctx context.Context, root, predicate string) ([]string, error) {
	allowed := map[string]bool{predicate: true, PredicateSection: true, PredicateBridge: true}
	steps, err := g.edges.Traverse(ctx, root, false, 1, g.maxDepth, allowed, nil)
	if err != nil {
		return nil, wrapDepth(err)
	}
	seen := make(map[string]struct{})
	var out []string
	for _, st := range steps {
		if st.Edge.Predicate != predicate {
			continue // section/bridge edges are passed through, not emitted as members
		}
		if _, ok := seen[st.Vertex]; !ok {
			seen[st.Vertex] = struct{}{}
			out = append(out, st.Vertex)
		}
	}
	return out, nil
}

// TreeNode is one level of the nested form enumeration_tree returns.
type TreeNode struct {
	Vertex   string
	Children []*TreeNode
}

// Tree builds the nested-tree form of root's descendants under
// predicate, bounded at maxLevels (§4.4 enumeration_tree).
func (g *Graph) Tree(ctx context.Context, root, predicate string, maxLevels int) (*TreeNode, error) {
	if maxLevels <= 0 || maxLevels > g.maxDepth {
		maxLevels = g.maxDepth
	}
	allowed := map[string]bool{predicate: true, PredicateSection: true, PredicateBridge: true}
	steps, err := g.edges.Traverse(ctx, root, false, 1, maxLevels, allowed, nil)
	if err != nil {
		return nil, wrapDepth(err)
	}

	children := make(map[string][]store.TraverseStep)
	for _, st := range steps {
		children[st.Edge.From] = append(children[st.Edge.From], st)
	}

	var build func(vertex string, depth int) *TreeNode
	build = func(vertex string, depth int) *TreeNode {
		node := &TreeNode{Vertex: vertex}
		if depth >= maxLevels {
			return node
		}
		for _, st := range children[vertex] {
			if st.Edge.Predicate != predicate {
				continue
			}
			node.Children = append(node.Children, build(st.Vertex, depth+1))
		}
		return node
	}
	return build(root, 0), nil
}

// RequiredClosure walks required-indicator / required-metadata link
// predicates breadth-first from the given starting descriptors,
// producing every descriptor that must accompany them (§4.4
// required_closure). The traversal follows edges of the edge store this
// Graph wraps, matching predicates by name only, with no path/root
// concept; link documents that engine.LinkEngine writes to the link
// collection are not read.
func (g *Graph) RequiredClosure(ctx context.Context, start []string, predicates []string) ([]string, error) {
	allowed := make(map[string]bool, len(predicates))
	for _, p := range predicates {
		allowed[p] = true
	}

	seen := make(map[string]struct{}, len(start))
	for _, s := range start {
		seen[s] = struct{}{}
	}
	queue := append([]string{}, start...)
	result := append([]string{}, start...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		steps, err := g.edges.Traverse(ctx, current, false, 1, g.maxDepth, allowed, nil)
		if err != nil {
			return nil, wrapDepth(err)
		}
		for _, st := range steps {
			if seen[st.Vertex] {
				continue
			}
			seen[st.Vertex] = struct{}{}
			result = append(result, st.Vertex)
			queue = append(queue, st.Vertex)
		}
	}
	return result, nil
}
