package engine

import (
	"testing"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTermLookup map[string]store.Document

func (s stubTermLookup) Get(handle string) (store.Document, error) {
	doc, ok := s[handle]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func TestSetLinkInsertsNewLink(t *testing.T) {
	docs := store.NewMemoryStore()
	defer docs.Close()
	le := NewLinkEngine(docs, "", nil)

	result, err := le.SetLink(SetLinkRequest{From: "field-a", Predicate: "required-indicator", To: "field-b", Save: true})
	require.NoError(t, err)
	assert.Equal(t, Inserted, result.Outcome)

	exists, err := docs.Exists(store.DefaultLinkCollection, result.Link.Key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSetLinkReportsExistingWhenDataUnchanged(t *testing.T) {
	docs := store.NewMemoryStore()
	defer docs.Close()
	le := NewLinkEngine(docs, "", nil)
	req := SetLinkRequest{From: "a", Predicate: "required-metadata", To: "b", Data: map[string]any{"x": 1.0}, Save: true}

	_, err := le.SetLink(req)
	require.NoError(t, err)

	result, err := le.SetLink(req)
	require.NoError(t, err)
	assert.Equal(t, Existing, result.Outcome)
}

func TestSetLinkReportsUpdatedWhenDataChanges(t *testing.T) {
	docs := store.NewMemoryStore()
	defer docs.Close()
	le := NewLinkEngine(docs, "", nil)

	_, err := le.SetLink(SetLinkRequest{From: "a", Predicate: "required-metadata", To: "b", Data: map[string]any{"x": 1.0}, Save: true})
	require.NoError(t, err)

	result, err := le.SetLink(SetLinkRequest{From: "a", Predicate: "required-metadata", To: "b", Data: map[string]any{"x": 2.0}, Save: true})
	require.NoError(t, err)
	assert.Equal(t, Updated, result.Outcome)
}

func TestSetLinkRequiresDescriptorEndpoints(t *testing.T) {
	docs := store.NewMemoryStore()
	defer docs.Close()
	terms := stubTermLookup{
		"plain-term": store.Document{"_code": map[string]any{"_lid": "plain-term"}},
	}
	le := NewLinkEngine(docs, "", terms)

	_, err := le.SetLink(SetLinkRequest{From: "plain-term", Predicate: "property-of", To: "plain-term", RequireDescriptors: true, Save: true})
	code, ok := dicterr.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, dicterr.NotDescriptor, code)
}

func TestDeleteLinkMissingIsIgnored(t *testing.T) {
	docs := store.NewMemoryStore()
	defer docs.Close()
	le := NewLinkEngine(docs, "", nil)

	outcome, err := le.DeleteLink("a", "required-indicator", "b")
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
}

func TestDeleteLinkRemovesExisting(t *testing.T) {
	docs := store.NewMemoryStore()
	defer docs.Close()
	le := NewLinkEngine(docs, "", nil)

	_, err := le.SetLink(SetLinkRequest{From: "a", Predicate: "required-indicator", To: "b", Save: true})
	require.NoError(t, err)

	outcome, err := le.DeleteLink("a", "required-indicator", "b")
	require.NoError(t, err)
	assert.Equal(t, Deleted, outcome)
}
