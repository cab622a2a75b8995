package term

import (
	"testing"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/opstats"
	"github.com/orneryd/dictionarydb/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return New(store.NewMemoryStore(), "")
}

func testTerm(lid, gid string) store.Document {
	return store.Document{
		SectionCode: map[string]any{FieldLID: lid, FieldGID: gid},
		SectionInfo: map[string]any{"_title": map[string]any{"iso_639_3_eng": "Test term"}},
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Insert(testTerm("test", "test")))

	doc, err := s.Get("test")
	require.NoError(t, err)
	assert.Equal(t, "test", code(doc)[FieldLID])
}

func TestGetLocalizedResolvesTitle(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Insert(testTerm("test", "test")))

	doc, err := s.GetLocalized("test", "iso_639_3_eng", "iso_639_3_eng")
	require.NoError(t, err)
	info := doc[SectionInfo].(map[string]any)
	assert.Equal(t, "Test term", info["_title"])
}

func TestGetUnknownHandleIsInvalidReference(t *testing.T) {
	s := newTestStore()
	_, err := s.Get("missing")
	code, ok := dicterr.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, dicterr.InvalidReference, code)
}

func TestInsertRejectsDuplicateGID(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Insert(testTerm("a", "shared-gid")))

	err := s.Insert(testTerm("b", "shared-gid"))
	code, ok := dicterr.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, dicterr.DuplicateKey, code)
}

func TestInsertRejectsNamespaceCollisionOnAID(t *testing.T) {
	s := newTestStore()
	first := testTerm("a", "a")
	first[SectionCode].(map[string]any)[FieldAID] = []any{"alias-1"}
	require.NoError(t, s.Insert(first))

	second := testTerm("b", "b")
	second[SectionCode].(map[string]any)[FieldLID] = "alias-1"
	err := s.Insert(second)
	code, ok := dicterr.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, dicterr.DuplicateKey, code)
}

func TestInsertManyReportsPerItemFailureWithoutAbortingOthers(t *testing.T) {
	s := newTestStore()
	docs := []store.Document{
		testTerm("good-1", "good-1"),
		testTerm("good-1", "good-1"), // duplicate of the one above
		testTerm("good-2", "good-2"),
	}

	results, counters := s.InsertMany(docs)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 2, counters.Counts[opstats.Inserted])
	assert.Equal(t, 1, counters.Counts[opstats.Ignored])

	exists, _ := s.Exists("good-2")
	assert.True(t, exists, "a later item still applies after an earlier item fails")
}

func TestDeleteManyReportsDeletedAndIgnored(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Insert(testTerm("test", "test")))
	require.NoError(t, s.Insert(testTerm("test-01", "test-01")))

	counters := s.DeleteMany([]string{"test-01", "test-02", "UNKNOWN TERM"})
	assert.Equal(t, 1, counters.Counts[opstats.Deleted])
	assert.Equal(t, 2, counters.Counts[opstats.Ignored])
}

func TestUpdatePatchesWithoutClobberingUntouchedFields(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Insert(testTerm("test", "test")))

	require.NoError(t, s.Update("test", store.Document{SectionData: map[string]any{"_scalar": map[string]any{"_type": "string"}}}))

	doc, err := s.Get("test")
	require.NoError(t, err)
	assert.NotNil(t, doc[SectionData])
	assert.NotNil(t, doc[SectionInfo])
}

func TestQueryFiltersByNamespaceAndHasData(t *testing.T) {
	s := newTestStore()
	withData := testTerm("descriptor", "descriptor")
	withData[SectionData] = map[string]any{"_scalar": map[string]any{"_type": "string"}}
	require.NoError(t, s.Insert(withData))
	require.NoError(t, s.Insert(testTerm("namespace-term", "namespace-term")))

	results, err := s.Query(Filter{HasData: true}, Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, IsDescriptor(results[0]))
}
