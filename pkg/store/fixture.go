package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk shape of a YAML seed file: a flat list of term
// and link documents plus edges, retargeting the teacher's "load an
// export on startup" pattern (pkg/storage/mimir_loader.go) at the term
// dictionary's own document shapes instead of a Neo4j export.
type Fixture struct {
	Terms []FixtureTerm `yaml:"terms"`
	Links []FixtureTerm `yaml:"links"`
	Edges []FixtureEdge `yaml:"edges"`
}

// FixtureTerm is one term or link document, handle plus arbitrary body.
type FixtureTerm struct {
	Handle string         `yaml:"handle"`
	Body   map[string]any `yaml:"body"`
}

// FixtureEdge is one edge triple plus the optional data blob stored on
// it when the loader first inserts it (§3.4); an edge that already
// exists keeps its data. Key is left for the loader to compute.
type FixtureEdge struct {
	From      string         `yaml:"from"`
	Predicate string         `yaml:"predicate"`
	To        string         `yaml:"to"`
	Path      []string       `yaml:"path"`
	Data      map[string]any `yaml:"data"`
}

// LoadResult mirrors the teacher's MimirImportResult: counters plus
// non-fatal per-record errors, so a malformed fixture entry doesn't
// abort an otherwise-good load.
type LoadResult struct {
	TermsLoaded int
	LinksLoaded int
	EdgesLoaded int
	Errors      []string
}

// LoadFromFile reads a YAML fixture and seeds it into s. Terms and links
// are inserted into their named collections; edges are inserted with
// "use-existing" semantics via InsertEdges, keyed deterministically from
// (from, predicate, to) so the same fixture can be loaded twice without
// duplicating edges.
func LoadFromFile(s Store, path string, termCollection, linkCollection string) (*LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	result := &LoadResult{}

	for _, t := range fixture.Terms {
		if err := loadOneDocument(s, termCollection, t, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("term %s: %v", t.Handle, err))
			continue
		}
		result.TermsLoaded++
	}

	for _, l := range fixture.Links {
		if err := loadOneDocument(s, linkCollection, l, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("link %s: %v", l.Handle, err))
			continue
		}
		result.LinksLoaded++
	}

	edges := make([]Edge, 0, len(fixture.Edges))
	for _, fe := range fixture.Edges {
		if fe.From == "" || fe.Predicate == "" || fe.To == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("edge %s-%s-%s: missing from/predicate/to", fe.From, fe.Predicate, fe.To))
			continue
		}
		edges = append(edges, Edge{
			Key:       edgeKeyOf(fe.From, fe.Predicate, fe.To),
			From:      fe.From,
			To:        fe.To,
			Predicate: fe.Predicate,
			Path:      fe.Path,
			Data:      fe.Data,
		})
	}
	if len(edges) > 0 {
		if err := s.InsertEdges(edges); err != nil {
			return result, fmt.Errorf("inserting fixture edges: %w", err)
		}
		result.EdgesLoaded = len(edges)
	}

	return result, nil
}

func loadOneDocument(s Store, collection string, t FixtureTerm, result *LoadResult) error {
	if t.Handle == "" {
		return fmt.Errorf("missing handle")
	}
	doc := Document(t.Body)
	if doc == nil {
		doc = Document{}
	}
	exists, err := s.Exists(collection, t.Handle)
	if err != nil {
		return err
	}
	if exists {
		return s.Replace(collection, t.Handle, doc)
	}
	return s.Insert(collection, t.Handle, doc)
}
