// Package dictionary implements the Dictionary Resolver (component D):
// term resolution by code field, enumeration traversal, and the
// required-closure expansion over link predicates (§4.4).
//
// Grounded on the teacher's apoc/search (field/criteria resolution over
// a label, generalized here to the dictionary's code-field candidate
// order) and apoc/path (the bounded traversal internal/graph already
// wraps); this package is the thin domain layer naming which predicates
// and field order the functional taxonomy (§3.6) actually uses.
package dictionary

import (
	"context"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/graph"
	"github.com/orneryd/dictionarydb/internal/term"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// Functional predicate names of §3.6, besides section/bridge (which
// live in internal/graph since every traversal tolerates them).
const (
	PredicateEnum              = "enum-of"
	PredicateField             = "field-of"
	PredicateProperty          = "property-of"
	PredicateRequiredIndicator = "required-indicator"
	PredicateRequiredMetadata  = "required-metadata"
)

// DefaultFieldOrder is the candidate code-field order resolve_term
// tries when the caller does not pin a single field (§4.4).
var DefaultFieldOrder = []string{term.FieldGID, term.FieldAID, term.FieldPID, term.FieldLID}

// TermLookup is the subset of internal/term.Store the resolver needs.
type TermLookup interface {
	Get(handle string) (store.Document, error)
	LookupByField(field string, value any) ([]string, error)
}

// Resolver is the Dictionary Resolver, built over a term lookup and a
// graph of enum-of/required-* edges.
type Resolver struct {
	terms      TermLookup
	graph      *graph.Graph
	fieldOrder []string
}

// New builds a Resolver. fieldOrder overrides DefaultFieldOrder when
// non-empty (§6.4 resolveField-style configurability).
func New(terms TermLookup, g *graph.Graph, fieldOrder []string) *Resolver {
	if len(fieldOrder) == 0 {
		fieldOrder = DefaultFieldOrder
	}
	return &Resolver{terms: terms, graph: g, fieldOrder: fieldOrder}
}

// ResolveTerm resolves ref against field (searching the full candidate
// order when field is empty), optionally restricted to namespace.
// matches reports how many handles matched; a single match returns the
// resolved document, zero matches returns (nil, 0, nil), and more than
// one returns a dicterr.AmbiguousResolution error (§4.4, §4.5.2 step 3).
func (r *Resolver) ResolveTerm(ref, field, namespace string) (doc store.Document, matches int, err error) {
	fields := r.fieldOrder
	if field != "" {
		fields = []string{field}
	}

	var handles []string
	for _, f := range fields {
		found, err := r.terms.LookupByField(f, ref)
		if err != nil {
			return nil, 0, err
		}
		if namespace != "" {
			found = filterByNamespace(r.terms, found, namespace)
		}
		if len(found) > 0 {
			handles = found
			break
		}
	}

	switch len(handles) {
	case 0:
		return nil, 0, nil
	case 1:
		doc, err := r.terms.Get(handles[0])
		return doc, 1, err
	default:
		return nil, len(handles), dicterr.New(dicterr.AmbiguousResolution,
			"reference "+ref+" matched more than one term")
	}
}

func filterByNamespace(terms TermLookup, handles []string, namespace string) []string {
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		doc, err := terms.Get(h)
		if err != nil {
			continue
		}
		code, _ := doc[term.SectionCode].(map[string]any)
		if nid, _ := code[term.FieldNID].(string); nid == namespace {
			out = append(out, h)
		}
	}
	return out
}

// EnumerationKeys returns the flat list of root's descendants reachable
// by enum-of, tolerating section/bridge (§4.4).
func (r *Resolver) EnumerationKeys(ctx context.Context, root string) ([]string, error) {
	return r.graph.Descendants(ctx, root, PredicateEnum)
}

// EnumerationTerms is EnumerationKeys with each handle resolved to its
// term document.
func (r *Resolver) EnumerationTerms(ctx context.Context, root string) (map[string]store.Document, error) {
	keys, err := r.EnumerationKeys(ctx, root)
	if err != nil {
		return nil, err
	}
	out := make(map[string]store.Document, len(keys))
	for _, k := range keys {
		doc, err := r.terms.Get(k)
		if err != nil {
			continue
		}
		out[k] = doc
	}
	return out, nil
}

// EnumerationTree returns the nested-tree form of root's enum-of
// descendants, bounded at maxLevels.
func (r *Resolver) EnumerationTree(ctx context.Context, root string, maxLevels int) (*graph.TreeNode, error) {
	return r.graph.Tree(ctx, root, PredicateEnum, maxLevels)
}

// CheckEnum reports, for each of keys, whether it is a valid enumeration
// element of root (itself or a descendant via enum-of).
func (r *Resolver) CheckEnum(ctx context.Context, root string, keys []string) (map[string]bool, error) {
	descendants, err := r.EnumerationKeys(ctx, root)
	if err != nil {
		return nil, err
	}
	valid := make(map[string]bool, len(descendants)+1)
	valid[root] = true
	for _, d := range descendants {
		valid[d] = true
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = valid[k]
	}
	return out, nil
}

// CheckCodes is CheckEnum against a code field value (e.g. _lid) rather
// than a raw handle: each code is resolved to a handle first, and
// unresolvable codes are reported invalid rather than erroring.
func (r *Resolver) CheckCodes(ctx context.Context, root, field string, codes []string) (map[string]bool, error) {
	out := make(map[string]bool, len(codes))
	for _, code := range codes {
		doc, matches, err := r.ResolveTerm(code, field, "")
		if err != nil || matches != 1 {
			out[code] = false
			continue
		}
		handle, _ := doc[term.SectionCode].(map[string]any)
		lid, _ := handle[term.FieldLID].(string)

		valid, err := r.CheckEnum(ctx, root, []string{lid})
		if err != nil {
			return nil, err
		}
		out[code] = valid[lid]
	}
	return out, nil
}

// RequiredClosure expands descriptors breadth-first over
// required-indicator and required-metadata link predicates (§4.4).
func (r *Resolver) RequiredClosure(ctx context.Context, descriptors []string) ([]string, error) {
	return r.graph.RequiredClosure(ctx, descriptors, []string{PredicateRequiredIndicator, PredicateRequiredMetadata})
}
