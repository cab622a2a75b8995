// BadgerStore is the persistent Store implementation, grounded on the
// teacher's storage.BadgerEngine: single-byte key prefixes per logical
// collection, JSON-encoded values, and badger.Txn's native atomicity
// standing in for the "single-document atomic insert/replace" the
// abstract store interface promises (§6.1, §9).
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key layout, one prefix byte per logical namespace:
//
//	0x01 + collection + 0x00 + handle                -> JSON(Document)
//	0x02 + edgeKey                                    -> JSON(Edge)
//	0x03 + collection + 0x00 + field + 0x00 + value + 0x00 + handle -> empty
//	0x04 + vertex + 0x00 + edgeKey (outgoing)         -> empty
//	0x05 + vertex + 0x00 + edgeKey (incoming)         -> empty
const (
	prefixDocument    = byte(0x01)
	prefixEdge        = byte(0x02)
	prefixFieldIndex  = byte(0x03)
	prefixOutgoing    = byte(0x04)
	prefixIncoming    = byte(0x05)
)

// BadgerOptions configures BadgerStore, mirroring storage.BadgerOptions.
type BadgerOptions struct {
	DataDir    string
	InMemory   bool
	SyncWrites bool
}

// BadgerStore is a persistent, disk-backed Store.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool

	// indexedFields tracks which collection/field pairs have ever been
	// looked up, so LookupByField knows to build index entries for
	// fields written before the first lookup (see buildFieldIndex).
	indexedFields map[string]map[string]bool
	indexMu       sync.Mutex
}

// NewBadgerStore opens (or creates) a persistent store at dataDir.
func NewBadgerStore(dataDir string) (*BadgerStore, error) {
	return NewBadgerStoreWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerStoreInMemory opens an in-memory badger instance — distinct
// from MemoryStore in that it still exercises the on-disk encoding and
// transactional path, useful for persistence-layer tests.
func NewBadgerStoreInMemory() (*BadgerStore, error) {
	return NewBadgerStoreWithOptions(BadgerOptions{DataDir: "", InMemory: true})
}

// NewBadgerStoreWithOptions opens a store with full control over
// durability trade-offs.
func NewBadgerStoreWithOptions(opts BadgerOptions) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir).WithLogger(nil)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}

	return &BadgerStore{db: db, indexedFields: make(map[string]map[string]bool)}, nil
}

func documentKey(collection, handle string) []byte {
	return []byte(string(prefixDocument) + collection + "\x00" + handle)
}

func documentPrefix(collection string) []byte {
	return []byte(string(prefixDocument) + collection + "\x00")
}

func edgeKeyBytes(key string) []byte {
	return []byte(string(prefixEdge) + key)
}

func fieldIndexKey(collection, field, value, handle string) []byte {
	return []byte(string(prefixFieldIndex) + collection + "\x00" + field + "\x00" + value + "\x00" + handle)
}

func fieldIndexPrefix(collection, field, value string) []byte {
	return []byte(string(prefixFieldIndex) + collection + "\x00" + field + "\x00" + value + "\x00")
}

func outgoingKey(vertex, key string) []byte {
	return []byte(string(prefixOutgoing) + vertex + "\x00" + key)
}

func outgoingPrefix(vertex string) []byte {
	return []byte(string(prefixOutgoing) + vertex + "\x00")
}

func incomingKey(vertex, key string) []byte {
	return []byte(string(prefixIncoming) + vertex + "\x00" + key)
}

func incomingPrefix(vertex string) []byte {
	return []byte(string(prefixIncoming) + vertex + "\x00")
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// --- DocumentStore ---

func (s *BadgerStore) Exists(collection, handle string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(documentKey(collection, handle))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (s *BadgerStore) Get(collection, handle string) (Document, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(collection, handle))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BadgerStore) GetMany(collection string, handles []string) (map[string]Document, error) {
	out := make(map[string]Document, len(handles))
	for _, h := range handles {
		doc, err := s.Get(collection, h)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[h] = doc
	}
	return out, nil
}

func (s *BadgerStore) Insert(collection, handle string, doc Document) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(documentKey(collection, handle))
		if err == nil {
			return ErrAlreadyExists
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return s.writeDocument(txn, collection, handle, nil, doc)
	})
}

func (s *BadgerStore) Replace(collection, handle string, doc Document) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		old, err := s.readDocument(txn, collection, handle)
		if err != nil {
			return err
		}
		return s.writeDocument(txn, collection, handle, old, doc)
	})
}

func (s *BadgerStore) Update(collection, handle string, patch Document) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		old, err := s.readDocument(txn, collection, handle)
		if err != nil {
			return err
		}
		merged := old.Clone()
		for k, v := range patch {
			merged[k] = v
		}
		return s.writeDocument(txn, collection, handle, old, merged)
	})
}

func (s *BadgerStore) Delete(collection, handle string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		old, err := s.readDocument(txn, collection, handle)
		if err != nil {
			return err
		}
		if err := txn.Delete(documentKey(collection, handle)); err != nil {
			return err
		}
		return s.unindexDocument(txn, collection, handle, old)
	})
}

func (s *BadgerStore) readDocument(txn *badger.Txn, collection, handle string) (Document, error) {
	item, err := txn.Get(documentKey(collection, handle))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &doc) }); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BadgerStore) writeDocument(txn *badger.Txn, collection, handle string, old, new Document) error {
	data, err := json.Marshal(new)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := txn.Set(documentKey(collection, handle), data); err != nil {
		return err
	}
	if err := s.unindexDocument(txn, collection, handle, old); err != nil {
		return err
	}
	return s.indexDocument(txn, collection, handle, new)
}

// indexDocument writes field-index entries for every field this
// collection has ever been queried on (tracked in indexedFields).
func (s *BadgerStore) indexDocument(txn *badger.Txn, collection, handle string, doc Document) error {
	for _, field := range s.trackedFields(collection) {
		for _, v := range valuesOf(doc[field]) {
			if err := txn.Set(fieldIndexKey(collection, field, fmt.Sprint(v), handle), []byte{}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BadgerStore) unindexDocument(txn *badger.Txn, collection, handle string, doc Document) error {
	if doc == nil {
		return nil
	}
	for _, field := range s.trackedFields(collection) {
		for _, v := range valuesOf(doc[field]) {
			if err := txn.Delete(fieldIndexKey(collection, field, fmt.Sprint(v), handle)); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
		}
	}
	return nil
}

func (s *BadgerStore) trackedFields(collection string) []string {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	fields := s.indexedFields[collection]
	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	return out
}

func (s *BadgerStore) markFieldTracked(collection, field string) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.indexedFields[collection] == nil {
		s.indexedFields[collection] = make(map[string]bool)
	}
	s.indexedFields[collection][field] = true
}

// LookupByField builds the index for collection/field on first use (by
// scanning every stored document once) and thereafter serves lookups
// from the maintained index entries written by writeDocument.
func (s *BadgerStore) LookupByField(collection, field string, value any) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	s.indexMu.Lock()
	alreadyTracked := s.indexedFields[collection][field]
	s.indexMu.Unlock()

	if !alreadyTracked {
		if err := s.buildFieldIndex(collection, field); err != nil {
			return nil, err
		}
		s.markFieldTracked(collection, field)
	}

	var handles []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := fieldIndexPrefix(collection, field, fmt.Sprint(value))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			handles = append(handles, string(key[len(prefix):]))
		}
		return nil
	})
	sort.Strings(handles)
	return handles, err
}

func (s *BadgerStore) buildFieldIndex(collection, field string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := documentPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			handle := strings.TrimPrefix(string(item.Key()), string(prefix))
			var doc Document
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &doc) }); err != nil {
				return err
			}
			for _, v := range valuesOf(doc[field]) {
				if err := txn.Set(fieldIndexKey(collection, field, fmt.Sprint(v), handle), []byte{}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *BadgerStore) Query(collection string, filter func(Document) bool, offset, limit int) ([]Document, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var matched []Document
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := documentPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc Document
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &doc) }); err != nil {
				return err
			}
			if filter == nil || filter(doc) {
				matched = append(matched, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
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

// --- EdgeStore ---

func (s *BadgerStore) GetEdge(key string) (Edge, error) {
	if err := s.checkOpen(); err != nil {
		return Edge{}, err
	}
	var e Edge
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKeyBytes(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &e) })
	})
	return e, err
}

func (s *BadgerStore) EdgeExists(src, predicate, dst string) (bool, error) {
	_, err := s.GetEdge(edgeKeyOf(src, predicate, dst))
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BadgerStore) InsertEdges(edges []Edge) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, e := range edges {
			_, err := txn.Get(edgeKeyBytes(e.Key))
			if err == nil {
				continue // use-existing, per §9
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
			if err := s.writeEdge(txn, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) ReplaceEdges(edges []Edge) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, e := range edges {
			if old, err := s.readEdge(txn, e.Key); err == nil {
				if err := s.unindexEdge(txn, old); err != nil {
					return err
				}
			}
			if err := s.writeEdge(txn, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) DeleteEdges(keys []string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			old, err := s.readEdge(txn, k)
			if err == ErrNotFound {
				continue
			}
			if err != nil {
				return err
			}
			if err := txn.Delete(edgeKeyBytes(k)); err != nil {
				return err
			}
			if err := s.unindexEdge(txn, old); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) readEdge(txn *badger.Txn, key string) (Edge, error) {
	item, err := txn.Get(edgeKeyBytes(key))
	if err == badger.ErrKeyNotFound {
		return Edge{}, ErrNotFound
	}
	if err != nil {
		return Edge{}, err
	}
	var e Edge
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
		return Edge{}, err
	}
	return e, nil
}

func (s *BadgerStore) writeEdge(txn *badger.Txn, e Edge) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding edge: %w", err)
	}
	if err := txn.Set(edgeKeyBytes(e.Key), data); err != nil {
		return err
	}
	if err := txn.Set(outgoingKey(e.From, e.Key), []byte{}); err != nil {
		return err
	}
	return txn.Set(incomingKey(e.To, e.Key), []byte{})
}

func (s *BadgerStore) unindexEdge(txn *badger.Txn, e Edge) error {
	if err := txn.Delete(outgoingKey(e.From, e.Key)); err != nil && err != badger.ErrKeyNotFound {
		return err
	}
	return txn.Delete(incomingKey(e.To, e.Key))
}

// Traverse walks the persisted adjacency indexes breadth-first, reusing
// the same direction/predicate/prune semantics as MemoryStore.Traverse.
func (s *BadgerStore) Traverse(ctx context.Context, from string, direction bool, minDepth, maxDepth int, predicateSet map[string]bool, prune func(Edge) bool) ([]TraverseStep, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	type frontierItem struct {
		vertex string
		depth  int
	}

	var steps []TraverseStep
	visited := make(map[string]bool)
	queue := []frontierItem{{vertex: from, depth: 0}}

	err := s.db.View(func(txn *badger.Txn) error {
		for len(queue) > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := queue[0]
			queue = queue[1:]
			if item.depth >= maxDepth {
				continue
			}

			var prefix []byte
			if direction {
				prefix = incomingPrefix(item.vertex)
			} else {
				prefix = outgoingPrefix(item.vertex)
			}

			it := txn.NewIterator(badger.DefaultIteratorOptions)
			var keys []string
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().KeyCopy(nil)
				keys = append(keys, string(bytes.TrimPrefix(key, prefix)))
			}
			it.Close()

			for _, k := range keys {
				if visited[k] {
					continue
				}
				e, err := s.readEdge(txn, k)
				if err != nil {
					return err
				}
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
					steps = append(steps, TraverseStep{Vertex: next, Edge: e, Depth: depth})
				}
				if prune != nil && prune(e) {
					continue
				}
				queue = append(queue, frontierItem{vertex: next, depth: depth})
			}
		}
		return nil
	})
	return steps, err
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
