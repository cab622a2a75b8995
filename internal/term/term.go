// Package term implements the Term Store (component A): a document
// collection of terms keyed by local identifier, with a secondary
// index on the code fields and the §3.1 uniqueness/non-collision
// invariants enforced at insert time.
//
// Grounded on the teacher's apoc/search (field/criteria lookups over a
// label) for Query's filter shape, and pkg/storage's label-index
// pattern for LookupByField.
package term

import (
	"errors"
	"fmt"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/langtag"
	"github.com/orneryd/dictionarydb/internal/opstats"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// Section names (§3.1).
const (
	SectionCode = "_code"
	SectionInfo = "_info"
	SectionData = "_data"
	SectionRule = "_rule"
)

// Code-section field names.
const (
	FieldLID  = "_lid"
	FieldGID  = "_gid"
	FieldAID  = "_aid"
	FieldPID  = "_pid"
	FieldNID  = "_nid"
	FieldName = "_name"
)

// InfoLanguageFields lists every _info field that carries a
// language-tag mapping rather than a plain value (§3.1, §6.3).
var InfoLanguageFields = []string{"_title", "_definition", "_description", "_examples", "_notes", "_provider"}

// CodeFields lists the fields the per-namespace collision invariant
// applies to, besides _lid (§3.1: "{_lid, _gid} ∪ _aid ∪ _pid").
var CodeFields = []string{FieldGID, FieldAID, FieldPID}

// Store is the Term Store.
type Store struct {
	docs       store.DocumentStore
	collection string
}

// New wraps a DocumentStore as a term Store over the named collection.
func New(docs store.DocumentStore, collection string) *Store {
	if collection == "" {
		collection = store.DefaultTermCollection
	}
	return &Store{docs: docs, collection: collection}
}

// Exists reports whether a term with this handle (its _lid) exists.
func (s *Store) Exists(handle string) (bool, error) {
	return s.docs.Exists(s.collection, handle)
}

// Get fetches the raw term document, §7 InvalidReference on absence.
func (s *Store) Get(handle string) (store.Document, error) {
	doc, err := s.docs.Get(s.collection, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dicterr.Wrap(dicterr.InvalidReference, fmt.Sprintf("term %q not found", handle), err)
		}
		return nil, err
	}
	return stripFlattened(doc), nil
}

// flattenForStorage copies the code-section identifiers up to the
// document's top level. The store's secondary index only sees top-level
// fields (pkg/store.DocumentStore.LookupByField), while terms carry
// their identifiers nested under _code (§3.1) — this keeps
// LookupByField("_gid", ...) etc. working without teaching the generic
// store about term-specific nesting.
func flattenForStorage(doc store.Document) store.Document {
	out := doc.Clone()
	c := code(doc)
	for _, field := range []string{FieldLID, FieldGID, FieldAID, FieldPID} {
		if v, ok := c[field]; ok {
			out[field] = v
		} else {
			delete(out, field)
		}
	}
	return out
}

// stripFlattened removes the top-level copies flattenForStorage added,
// so callers only ever see the four-section document shape of §3.1.
func stripFlattened(doc store.Document) store.Document {
	out := doc.Clone()
	delete(out, FieldLID)
	delete(out, FieldGID)
	delete(out, FieldAID)
	delete(out, FieldPID)
	return out
}

// GetLocalized fetches a term and resolves its _info language mappings
// to a single value for language, falling back to AnyLanguage and
// then defaultLanguage (§6.3).
func (s *Store) GetLocalized(handle, language, defaultLanguage string) (store.Document, error) {
	doc, err := s.Get(handle)
	if err != nil {
		return nil, err
	}
	return localize(doc, language, defaultLanguage), nil
}

func localize(doc store.Document, language, defaultLanguage string) store.Document {
	out := doc.Clone()
	info, ok := out[SectionInfo].(map[string]any)
	if !ok {
		return out
	}
	out[SectionInfo] = langtag.LocalizeInfo(info, InfoLanguageFields, language, defaultLanguage)
	return out
}

// GetMany fetches every handle present, silently omitting absent ones
// (callers distinguish "found" vs "not" via map membership).
func (s *Store) GetMany(handles []string) (map[string]store.Document, error) {
	raw, err := s.docs.GetMany(s.collection, handles)
	if err != nil {
		return nil, err
	}
	out := make(map[string]store.Document, len(raw))
	for h, doc := range raw {
		out[h] = stripFlattened(doc)
	}
	return out, nil
}

// LookupByField finds every term handle whose code section has field ==
// value. field must be one of _lid, _gid, _aid, _pid (§4.1).
func (s *Store) LookupByField(field string, value any) ([]string, error) {
	return s.docs.LookupByField(s.collection, field, value)
}

func code(doc store.Document) map[string]any {
	c, _ := doc[SectionCode].(map[string]any)
	return c
}

func namespaceOf(doc store.Document) string {
	nid, _ := code(doc)[FieldNID].(string)
	return nid
}

func handleOf(doc store.Document) (string, error) {
	lid, _ := code(doc)[FieldLID].(string)
	if lid == "" {
		return "", dicterr.New(dicterr.DefinitionError, "term code section missing required _lid")
	}
	return lid, nil
}

// codeIdentifiers returns every code-field value on doc that
// participates in the per-namespace collision check: _lid, _gid, and
// every entry of _aid/_pid.
func codeIdentifiers(doc store.Document) []string {
	c := code(doc)
	var ids []string
	if lid, _ := c[FieldLID].(string); lid != "" {
		ids = append(ids, lid)
	}
	if gid, _ := c[FieldGID].(string); gid != "" {
		ids = append(ids, gid)
	}
	ids = append(ids, stringList(c[FieldAID])...)
	ids = append(ids, stringList(c[FieldPID])...)
	return ids
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// checkCollisions enforces §3.1: _gid unique across all terms, and no
// code-field identifier shared between distinct terms in the same
// namespace. excludeHandle is the term's own handle, skipped when
// checking for self-collision during update.
func (s *Store) checkCollisions(doc store.Document, excludeHandle string) error {
	c := code(doc)
	namespace := namespaceOf(doc)

	if gid, _ := c[FieldGID].(string); gid != "" {
		handles, err := s.docs.LookupByField(s.collection, FieldGID, gid)
		if err != nil {
			return err
		}
		for _, h := range handles {
			if h != excludeHandle {
				return dicterr.New(dicterr.DuplicateKey, fmt.Sprintf("_gid %q already used by term %q", gid, h))
			}
		}
	}

	for _, id := range codeIdentifiers(doc) {
		for _, field := range append([]string{FieldLID}, CodeFields...) {
			handles, err := s.docs.LookupByField(s.collection, field, id)
			if err != nil {
				return err
			}
			for _, h := range handles {
				if h == excludeHandle {
					continue
				}
				other, err := s.docs.Get(s.collection, h)
				if err != nil {
					continue
				}
				if namespaceOf(other) == namespace {
					return dicterr.New(dicterr.DuplicateKey,
						fmt.Sprintf("identifier %q collides with term %q in namespace %q", id, h, namespace))
				}
			}
		}
	}
	return nil
}

// Insert validates and inserts a single term, keyed by its _lid.
func (s *Store) Insert(doc store.Document) error {
	handle, err := handleOf(doc)
	if err != nil {
		return err
	}
	if err := s.checkCollisions(doc, ""); err != nil {
		return err
	}
	if err := s.docs.Insert(s.collection, handle, flattenForStorage(doc)); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return dicterr.Wrap(dicterr.DuplicateKey, fmt.Sprintf("term %q already exists", handle), err)
		}
		return err
	}
	return nil
}

// InsertResult is one item's outcome from InsertMany.
type InsertResult struct {
	Handle string
	Err    error
}

// InsertMany inserts each term independently: a failing item is
// reported in its own InsertResult without affecting the others, and
// each individual insert is itself all-or-nothing (§4.1: "insert_many
// is all-or-nothing per item").
func (s *Store) InsertMany(docs []store.Document) ([]InsertResult, *opstats.Counters) {
	results := make([]InsertResult, 0, len(docs))
	counters := opstats.New()

	for _, doc := range docs {
		handle, err := handleOf(doc)
		if err == nil {
			err = s.Insert(doc)
		}
		results = append(results, InsertResult{Handle: handle, Err: err})
		if err != nil {
			counters.Record(opstats.Ignored, handle)
		} else {
			counters.Record(opstats.Inserted, handle)
		}
	}
	return results, counters
}

// Update patches an existing term's document, re-checking collisions
// against the merged result (so a patch cannot introduce a code-field
// collision any more than an insert could).
func (s *Store) Update(handle string, patch store.Document) error {
	existing, err := s.docs.Get(s.collection, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dicterr.Wrap(dicterr.InvalidReference, fmt.Sprintf("term %q not found", handle), err)
		}
		return err
	}

	merged := stripFlattened(existing)
	for k, v := range patch {
		merged[k] = v
	}
	if err := s.checkCollisions(merged, handle); err != nil {
		return err
	}
	return s.docs.Replace(s.collection, handle, flattenForStorage(merged))
}

// Delete removes a term by handle. Deletion does not cascade (§3.1) —
// callers own orphan management of edges/links referencing it.
func (s *Store) Delete(handle string) error {
	if err := s.docs.Delete(s.collection, handle); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dicterr.Wrap(dicterr.InvalidReference, fmt.Sprintf("term %q not found", handle), err)
		}
		return err
	}
	return nil
}

// DeleteMany deletes each handle, recording deleted vs ignored
// (absent) per §8.2 scenario S2 — absence is never an error here.
func (s *Store) DeleteMany(handles []string) *opstats.Counters {
	counters := opstats.New()
	for _, h := range handles {
		exists, err := s.docs.Exists(s.collection, h)
		if err != nil || !exists {
			counters.Record(opstats.Ignored, h)
			continue
		}
		if err := s.docs.Delete(s.collection, h); err != nil {
			counters.Record(opstats.Ignored, h)
			continue
		}
		counters.Record(opstats.Deleted, h)
	}
	return counters
}

// Filter narrows Query results, per the SUPPLEMENTED query-keys/
// query-terms pagination feature.
type Filter struct {
	Namespace     string
	HasData       bool
	TitleContains string
}

// Pagination bounds a Query call.
type Pagination struct {
	Offset int
	Limit  int
}

// Query scans the term collection applying Filter then Pagination.
func (s *Store) Query(filter Filter, page Pagination) ([]store.Document, error) {
	raw, err := s.docs.Query(s.collection, func(doc store.Document) bool {
		if filter.Namespace != "" && namespaceOf(doc) != filter.Namespace {
			return false
		}
		if filter.HasData {
			if _, ok := doc[SectionData].(map[string]any); !ok {
				return false
			}
		}
		if filter.TitleContains != "" && !titleContains(doc, filter.TitleContains) {
			return false
		}
		return true
	}, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]store.Document, len(raw))
	for i, doc := range raw {
		out[i] = stripFlattened(doc)
	}
	return out, nil
}

func titleContains(doc store.Document, substr string) bool {
	info, ok := doc[SectionInfo].(map[string]any)
	if !ok {
		return false
	}
	titles, ok := info["_title"].(map[string]any)
	if !ok {
		return false
	}
	for _, v := range titles {
		if s, ok := v.(string); ok && contains(s, substr) {
			return true
		}
	}
	return false
}

func contains(s, substr string) bool {
	return len(substr) == 0 || indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}

// IsDescriptor reports whether doc carries a data section (§3.1: "A
// term with a data section is called a descriptor").
func IsDescriptor(doc store.Document) bool {
	_, ok := doc[SectionData].(map[string]any)
	return ok
}
