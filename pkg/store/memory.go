// MemoryStore is a thread-safe, in-memory Store implementation.
//
// Grounded on the teacher's storage.MemoryEngine: per-collection maps
// protected by a single RWMutex, secondary indexes maintained
// alongside the primary map, and defensive copies on every read/write
// so callers can never mutate store-owned state out from under it.
package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements Store entirely in RAM. Use it for tests and
// small deployments, the same role storage.MemoryEngine plays in the
// teacher.
type MemoryStore struct {
	mu sync.RWMutex

	// collection -> handle -> document
	collections map[string]map[string]Document
	// collection -> field -> value (stringified) -> set of handles
	indexes map[string]map[string]map[string]map[string]struct{}

	edges map[string]Edge
	// vertex -> outgoing edge keys, vertex -> incoming edge keys
	outgoing map[string]map[string]struct{}
	incoming map[string]map[string]struct{}

	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		indexes:     make(map[string]map[string]map[string]map[string]struct{}),
		edges:       make(map[string]Edge),
		outgoing:    make(map[string]map[string]struct{}),
		incoming:    make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) collectionOf(name string) map[string]Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]Document)
		s.collections[name] = c
	}
	return c
}

// --- DocumentStore ---

func (s *MemoryStore) Exists(collection, handle string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.collectionOf(collection)[handle]
	return ok, nil
}

func (s *MemoryStore) Get(collection, handle string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	doc, ok := s.collectionOf(collection)[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) GetMany(collection string, handles []string) (map[string]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make(map[string]Document, len(handles))
	c := s.collectionOf(collection)
	for _, h := range handles {
		if doc, ok := c[h]; ok {
			out[h] = doc.Clone()
		}
	}
	return out, nil
}

func (s *MemoryStore) Insert(collection, handle string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := s.collectionOf(collection)
	if _, exists := c[handle]; exists {
		return ErrAlreadyExists
	}
	stored := doc.Clone()
	c[handle] = stored
	s.reindex(collection, handle, nil, stored)
	return nil
}

func (s *MemoryStore) Replace(collection, handle string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := s.collectionOf(collection)
	old, exists := c[handle]
	if !exists {
		return ErrNotFound
	}
	stored := doc.Clone()
	c[handle] = stored
	s.reindex(collection, handle, old, stored)
	return nil
}

func (s *MemoryStore) Update(collection, handle string, patch Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := s.collectionOf(collection)
	old, exists := c[handle]
	if !exists {
		return ErrNotFound
	}
	merged := old.Clone()
	for k, v := range patch {
		merged[k] = v
	}
	c[handle] = merged
	s.reindex(collection, handle, old, merged)
	return nil
}

func (s *MemoryStore) Delete(collection, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := s.collectionOf(collection)
	old, exists := c[handle]
	if !exists {
		return ErrNotFound
	}
	delete(c, handle)
	s.reindex(collection, handle, old, nil)
	return nil
}

// LookupByField returns the handles indexed under collection/field/value.
// Indexing is lazy: a field is indexed the first time it is looked up,
// then maintained incrementally on every subsequent write (see reindex).
func (s *MemoryStore) LookupByField(collection, field string, value any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.ensureFieldIndexed(collection, field)

	byValue := s.indexes[collection][field]
	set, ok := byValue[fmt.Sprint(value)]
	if !ok {
		return nil, nil
	}
	handles := make([]string, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles, nil
}

func (s *MemoryStore) Query(collection string, filter func(Document) bool, offset, limit int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	c := s.collectionOf(collection)
	handles := make([]string, 0, len(c))
	for h := range c {
		handles = append(handles, h)
	}
	sort.Strings(handles)

	matched := make([]Document, 0, len(handles))
	for _, h := range handles {
		doc := c[h]
		if filter == nil || filter(doc) {
			matched = append(matched, doc.Clone())
		}
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []Document{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// reindex updates every field index for collection after handle's
// document changes from old to new (either may be nil).
func (s *MemoryStore) reindex(collection, handle string, old, new Document) {
	byField, ok := s.indexes[collection]
	if !ok {
		return
	}
	for field, byValue := range byField {
		if old != nil {
			removeFromIndex(byValue, old[field], handle)
		}
		if new != nil {
			addToIndex(byValue, new[field], handle)
		}
	}
}

// ensureFieldIndexed builds an index for collection/field from the
// current collection contents if one does not exist yet.
func (s *MemoryStore) ensureFieldIndexed(collection, field string) {
	byField, ok := s.indexes[collection]
	if !ok {
		byField = make(map[string]map[string]map[string]struct{})
		s.indexes[collection] = byField
	}
	if _, ok := byField[field]; ok {
		return
	}
	byValue := make(map[string]map[string]struct{})
	for handle, doc := range s.collectionOf(collection) {
		addToIndex(byValue, doc[field], handle)
	}
	byField[field] = byValue
}

func addToIndex(byValue map[string]map[string]struct{}, value any, handle string) {
	for _, v := range valuesOf(value) {
		key := fmt.Sprint(v)
		set, ok := byValue[key]
		if !ok {
			set = make(map[string]struct{})
			byValue[key] = set
		}
		set[handle] = struct{}{}
	}
}

func removeFromIndex(byValue map[string]map[string]struct{}, value any, handle string) {
	for _, v := range valuesOf(value) {
		key := fmt.Sprint(v)
		if set, ok := byValue[key]; ok {
			delete(set, handle)
			if len(set) == 0 {
				delete(byValue, key)
			}
		}
	}
}

// valuesOf normalizes a field value for indexing: scalar fields (_lid,
// _gid) index under their single value, list fields (_aid, _pid) index
// under each element, per §3.1's "{_lid, _gid} ∪ _aid ∪ _pid" union.
func valuesOf(v any) []any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// --- EdgeStore ---

func (s *MemoryStore) GetEdge(key string) (Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Edge{}, ErrClosed
	}
	e, ok := s.edges[key]
	if !ok {
		return Edge{}, ErrNotFound
	}
	return e.Clone(), nil
}

func (s *MemoryStore) EdgeExists(src, predicate, dst string) (bool, error) {
	key := edgeKeyOf(src, predicate, dst)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.edges[key]
	return ok, nil
}

// InsertEdges applies use-existing conflict resolution: an edge whose
// key is already present is left untouched (§9).
func (s *MemoryStore) InsertEdges(edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, e := range edges {
		if _, exists := s.edges[e.Key]; exists {
			continue
		}
		s.putEdgeLocked(e.Clone())
	}
	return nil
}

func (s *MemoryStore) ReplaceEdges(edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, e := range edges {
		s.putEdgeLocked(e.Clone())
	}
	return nil
}

func (s *MemoryStore) DeleteEdges(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, k := range keys {
		old, ok := s.edges[k]
		if !ok {
			continue
		}
		delete(s.edges, k)
		s.unindexEdgeLocked(old)
	}
	return nil
}

func (s *MemoryStore) putEdgeLocked(e Edge) {
	if old, ok := s.edges[e.Key]; ok {
		s.unindexEdgeLocked(old)
	}
	s.edges[e.Key] = e
	s.indexEdgeLocked(e)
}

func (s *MemoryStore) indexEdgeLocked(e Edge) {
	if _, ok := s.outgoing[e.From]; !ok {
		s.outgoing[e.From] = make(map[string]struct{})
	}
	s.outgoing[e.From][e.Key] = struct{}{}
	if _, ok := s.incoming[e.To]; !ok {
		s.incoming[e.To] = make(map[string]struct{})
	}
	s.incoming[e.To][e.Key] = struct{}{}
}

func (s *MemoryStore) unindexEdgeLocked(e Edge) {
	if set, ok := s.outgoing[e.From]; ok {
		delete(set, e.Key)
	}
	if set, ok := s.incoming[e.To]; ok {
		delete(set, e.Key)
	}
}

// Traverse performs a breadth-first walk bounded by [minDepth,maxDepth],
// per §4.2. direction=false walks parent->children (_from->_to);
// direction=true walks children->parent (_to->_from). graph.Reachable
// (§4.3.1) starts at root and passes the set-edges direction flag
// straight through.
func (s *MemoryStore) Traverse(ctx context.Context, from string, direction bool, minDepth, maxDepth int, predicateSet map[string]bool, prune func(Edge) bool) ([]TraverseStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	type frontierItem struct {
		vertex string
		depth  int
	}

	var steps []TraverseStep
	visited := make(map[string]bool) // visited edge keys, not vertices: a DAG can revisit vertices validly
	queue := []frontierItem{{vertex: from, depth: 0}}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return steps, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		var edgeKeys map[string]struct{}
		if direction {
			edgeKeys = s.incoming[item.vertex]
		} else {
			edgeKeys = s.outgoing[item.vertex]
		}

		keys := make([]string, 0, len(edgeKeys))
		for k := range edgeKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if visited[k] {
				continue
			}
			e := s.edges[k]
			if len(predicateSet) > 0 && !predicateSet[e.Predicate] {
				continue
			}
			visited[k] = true

			depth := item.depth + 1
			var next string
			if direction {
				next = e.From
			} else {
				next = e.To
			}

			if depth >= minDepth {
				steps = append(steps, TraverseStep{Vertex: next, Edge: e.Clone(), Depth: depth})
			}

			if prune != nil && prune(e) {
				continue
			}
			queue = append(queue, frontierItem{vertex: next, depth: depth})
		}
	}

	return steps, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// edgeKeyOf computes the same deterministic key as
// internal/dicthash.EdgeKey. It is duplicated here rather than imported
// to keep pkg/store free of a dependency on internal/, since the store
// is meant to be usable as a standalone persistence layer.
func edgeKeyOf(src, predicate, dst string) string {
	sum := sha256.Sum256([]byte(src + "\x00" + predicate + "\x00" + dst))
	return fmt.Sprintf("%x", sum)
}
