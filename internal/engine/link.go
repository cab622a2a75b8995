package engine

import (
	"errors"
	"fmt"

	"github.com/orneryd/dictionarydb/internal/datamerge"
	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/dicthash"
	"github.com/orneryd/dictionarydb/internal/term"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// TermLookup is the subset of internal/term.Store a LinkEngine needs to
// enforce the optional "endpoints must be descriptors" flag (§4.3.4).
type TermLookup interface {
	Get(handle string) (store.Document, error)
}

// Link is the flat, path-less relationship document of §3.5: a global
// (src, predicate, dst) triple with an optional data blob.
type Link struct {
	Key       string
	From      string
	Predicate string
	To        string
	Data      map[string]any
}

// LinkEngine implements the link variant of set/delete-edges (§4.3.4):
// no path set, existing/updated decided purely by data-blob comparison.
type LinkEngine struct {
	docs       store.DocumentStore
	collection string
	terms      TermLookup
}

// NewLinkEngine wraps docs as a LinkEngine over the named collection.
func NewLinkEngine(docs store.DocumentStore, collection string, terms TermLookup) *LinkEngine {
	if collection == "" {
		collection = store.DefaultLinkCollection
	}
	return &LinkEngine{docs: docs, collection: collection, terms: terms}
}

// SetLinkRequest is the §4.3.4 input shape.
type SetLinkRequest struct {
	From               string
	Predicate          string
	To                 string
	Data               map[string]any
	RequireDescriptors bool
	Save               bool
}

// SetLinkResult reports the outcome of a single link set.
type SetLinkResult struct {
	Outcome Outcome
	Link    Link
}

// SetLink inserts or merges a link. Existing/updated is decided purely
// by whether the data blob actually changed — links have no path set to
// root-append into.
func (l *LinkEngine) SetLink(req SetLinkRequest) (*SetLinkResult, error) {
	if req.RequireDescriptors {
		if err := l.requireDescriptors(req.From, req.To); err != nil {
			return nil, err
		}
	}

	key := dicthash.EdgeKey(req.From, req.Predicate, req.To)
	raw, err := l.docs.Get(l.collection, key)
	if errors.Is(err, store.ErrNotFound) {
		data, _ := datamerge.Apply(map[string]any{}, req.Data)
		link := Link{Key: key, From: req.From, Predicate: req.Predicate, To: req.To, Data: data}
		if req.Save {
			if err := l.docs.Insert(l.collection, key, linkDoc(link)); err != nil {
				return nil, err
			}
		}
		return &SetLinkResult{Outcome: Inserted, Link: link}, nil
	}
	if err != nil {
		return nil, err
	}

	existing := linkFromDoc(key, raw)
	newData, changed := datamerge.Apply(existing.Data, req.Data)
	link := existing
	link.Data = newData
	outcome := Existing
	if changed {
		outcome = Updated
		if req.Save {
			if err := l.docs.Replace(l.collection, key, linkDoc(link)); err != nil {
				return nil, err
			}
		}
	}
	return &SetLinkResult{Outcome: outcome, Link: link}, nil
}

// DeleteLink removes a link by its (from, predicate, to) triple. A
// missing link is Ignored, not an error.
func (l *LinkEngine) DeleteLink(from, predicate, to string) (Outcome, error) {
	key := dicthash.EdgeKey(from, predicate, to)
	exists, err := l.docs.Exists(l.collection, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return Ignored, nil
	}
	if err := l.docs.Delete(l.collection, key); err != nil {
		return "", err
	}
	return Deleted, nil
}

func (l *LinkEngine) requireDescriptors(handles ...string) error {
	for _, h := range handles {
		doc, err := l.terms.Get(h)
		if err != nil {
			return err
		}
		if !term.IsDescriptor(doc) {
			return dicterr.New(dicterr.NotDescriptor, fmt.Sprintf("%q is not a descriptor", h))
		}
	}
	return nil
}

func linkDoc(l Link) store.Document {
	return store.Document{"_from": l.From, "_to": l.To, "_predicate": l.Predicate, "_data": l.Data}
}

func linkFromDoc(key string, doc store.Document) Link {
	data, _ := doc["_data"].(map[string]any)
	from, _ := doc["_from"].(string)
	to, _ := doc["_to"].(string)
	pred, _ := doc["_predicate"].(string)
	return Link{Key: key, From: from, Predicate: pred, To: to, Data: data}
}
