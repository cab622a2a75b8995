package validator

import (
	"context"
	"testing"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/dictionary"
	"github.com/orneryd/dictionarydb/internal/graph"
	"github.com/orneryd/dictionarydb/internal/term"
	"github.com/orneryd/dictionarydb/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T) (*term.Store, *Validator) {
	t.Helper()
	docs := store.NewMemoryStore()
	t.Cleanup(func() { docs.Close() })
	terms := term.New(docs, "")
	resolver := dictionary.New(terms, graph.New(docs, 10), nil)
	return terms, New(terms, resolver)
}

func plainTerm(lid, gid string) store.Document {
	return store.Document{
		term.SectionCode: map[string]any{term.FieldLID: lid, term.FieldGID: gid},
		term.SectionInfo: map[string]any{"_title": map[string]any{"en": lid}},
	}
}

func descriptorTerm(lid, gid string, rawData map[string]any) store.Document {
	doc := plainTerm(lid, gid)
	doc[term.SectionData] = rawData
	return doc
}

func objectTypeTerm(lid, gid string, rawRule map[string]any) store.Document {
	doc := plainTerm(lid, gid)
	doc[term.SectionRule] = rawRule
	return doc
}

func scalarDef(typ string, extra map[string]any) map[string]any {
	body := map[string]any{"_type": typ}
	for k, v := range extra {
		body[k] = v
	}
	return map[string]any{"_scalar": body}
}

func TestValidateDefinitionBooleanOK(t *testing.T) {
	_, v := newTestEnv(t)
	report := v.ValidateDefinition(context.Background(), scalarDef("boolean", nil), true, "", DefaultOptions())
	assert.Equal(t, 0, report.Status.Code)
}

func TestValidateDefinitionBooleanKindMismatch(t *testing.T) {
	_, v := newTestEnv(t)
	report := v.ValidateDefinition(context.Background(), scalarDef("boolean", nil), "not-a-bool", "", DefaultOptions())
	code := codeOf(report)
	assert.Equal(t, dicterr.KindMismatch, code)
}

func TestValidateDefinitionIntegerRange(t *testing.T) {
	_, v := newTestEnv(t)
	def := scalarDef("integer", map[string]any{"_mrange": map[string]any{"min": 1.0, "max": 10.0}})

	ok := v.ValidateDefinition(context.Background(), def, 5.0, "", DefaultOptions())
	assert.Equal(t, 0, ok.Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, 99.0, "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.RangeViolation, code)
}

func TestValidateDefinitionStringRegex(t *testing.T) {
	_, v := newTestEnv(t)
	def := scalarDef("string", map[string]any{"_regex": "^[a-z]+$"})

	assert.Equal(t, 0, v.ValidateDefinition(context.Background(), def, "abc", "", DefaultOptions()).Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, "ABC", "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.PatternMismatch, code)
}

func TestValidateDefinitionTimestampDayGranularity(t *testing.T) {
	_, v := newTestEnv(t)
	def := scalarDef("timestamp", map[string]any{"_dkind": "day"})

	assert.Equal(t, 0, v.ValidateDefinition(context.Background(), def, "2024-01-15", "", DefaultOptions()).Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, "2024-01-15T00:00:00Z", "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.FormatError, code)
}

func TestValidateDefinitionGeoJSON(t *testing.T) {
	_, v := newTestEnv(t)
	def := scalarDef("geojson", nil)
	value := map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}
	assert.Equal(t, 0, v.ValidateDefinition(context.Background(), def, value, "", DefaultOptions()).Status.Code)
}

func TestValidateDefinitionMissingTypeWithExpectTypes(t *testing.T) {
	_, v := newTestEnv(t)
	def := map[string]any{"_scalar": map[string]any{}}
	opts := DefaultOptions()
	opts.ExpectTypes = true

	report := v.ValidateDefinition(context.Background(), def, "x", "", opts)
	code := codeOf(report)
	assert.Equal(t, dicterr.DefinitionError, code)
}

func TestValidateDefinitionArrayElementCountBounds(t *testing.T) {
	_, v := newTestEnv(t)
	def := map[string]any{"_array": map[string]any{
		"_element":      scalarDef("string", nil),
		"_min_elements": 1.0,
		"_max_elements": 2.0,
	}}

	assert.Equal(t, 0, v.ValidateDefinition(context.Background(), def, []any{"a", "b"}, "", DefaultOptions()).Status.Code)

	tooMany := v.ValidateDefinition(context.Background(), def, []any{"a", "b", "c"}, "", DefaultOptions())
	code := codeOf(tooMany)
	assert.Equal(t, dicterr.RangeViolation, code)
}

func TestValidateDefinitionSetRejectsDuplicates(t *testing.T) {
	_, v := newTestEnv(t)
	def := map[string]any{"_set": map[string]any{"_element": scalarDef("string", nil)}}

	report := v.ValidateDefinition(context.Background(), def, []any{"a", "a"}, "", DefaultOptions())
	code := codeOf(report)
	assert.Equal(t, dicterr.DuplicateKey, code)
}

func TestValidateDefinitionDict(t *testing.T) {
	_, v := newTestEnv(t)
	def := map[string]any{"_dict": map[string]any{
		"_key":   scalarDef("string", nil),
		"_value": scalarDef("integer", nil),
	}}

	ok := v.ValidateDefinition(context.Background(), def, map[string]any{"a": 1.0, "b": 2.0}, "", DefaultOptions())
	assert.Equal(t, 0, ok.Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, map[string]any{"a": "not-an-int"}, "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.KindMismatch, code)
}

func TestValidateDescriptorResolvesThroughGID(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(descriptorTerm("is-active", "gid-is-active", scalarDef("boolean", nil))))

	report := v.ValidateDescriptor(context.Background(), "gid-is-active", true, "", DefaultOptions())
	assert.Equal(t, 0, report.Status.Code)
}

func TestValidateDescriptorNotFound(t *testing.T) {
	_, v := newTestEnv(t)
	report := v.ValidateDescriptor(context.Background(), "gid-nope", true, "", DefaultOptions())
	code := codeOf(report)
	assert.Equal(t, dicterr.InvalidReference, code)
}

func TestValidateDescriptorRejectsNonDescriptor(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(plainTerm("plain", "gid-plain")))

	report := v.ValidateDescriptor(context.Background(), "gid-plain", true, "", DefaultOptions())
	code := codeOf(report)
	assert.Equal(t, dicterr.NotDescriptor, code)
}

func seedEnum(t *testing.T, terms *term.Store, docs store.EdgeStore) {
	t.Helper()
	require.NoError(t, terms.Insert(plainTerm("us-state", "gid-us-state")))
	require.NoError(t, terms.Insert(plainTerm("ca", "gid-ca")))
	require.NoError(t, docs.InsertEdges([]store.Edge{
		{Key: "k1", From: "us-state", To: "ca", Predicate: dictionary.PredicateEnum, Path: []string{"us-state"}},
	}))
}

func TestValidateStringEnumMember(t *testing.T) {
	backing := store.NewMemoryStore()
	defer backing.Close()
	terms := term.New(backing, "")
	resolver := dictionary.New(terms, graph.New(backing, 10), nil)
	v := New(terms, resolver)

	seedEnum(t, terms, backing)
	def := scalarDef("string_enum", map[string]any{"_kind": []any{"gid-us-state"}})

	ok := v.ValidateDefinition(context.Background(), def, "gid-ca", "", DefaultOptions())
	assert.Equal(t, 0, ok.Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, "gid-tx", "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.EnumNotMember, code)
}

func TestValidateStringEnumResolvesViaResolveField(t *testing.T) {
	backing := store.NewMemoryStore()
	defer backing.Close()
	terms := term.New(backing, "")
	resolver := dictionary.New(terms, graph.New(backing, 10), nil)
	v := New(terms, resolver)

	seedEnum(t, terms, backing)
	def := scalarDef("string_enum", map[string]any{"_kind": []any{"gid-us-state"}})

	opts := DefaultOptions()
	opts.Resolve = true
	opts.ResolveField = term.FieldLID

	report := v.ValidateDefinition(context.Background(), def, "ca", "", opts)
	require.Equal(t, 0, report.Status.Code)
	require.Len(t, report.Changes, 1)
	for _, change := range report.Changes {
		assert.Equal(t, "ca", change.Original)
		assert.Equal(t, "gid-ca", change.Resolved)
	}
}

func TestValidateStringKeyReference(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(plainTerm("ref", "gid-ref")))

	def := scalarDef("string_key", nil)
	assert.Equal(t, 0, v.ValidateDefinition(context.Background(), def, "gid-ref", "", DefaultOptions()).Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, "gid-missing", "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.InvalidReference, code)
}

func TestValidateStringHandleReference(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(plainTerm("ca", "gid-ca")))

	def := scalarDef("string_handle", nil)
	assert.Equal(t, 0, v.ValidateDefinition(context.Background(), def, "ca", "", DefaultOptions()).Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, "tx", "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.InvalidReference, code)
}

func TestValidateObjectValueMissingRequiredProperty(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(objectTypeTerm("person-type", "gid-person", map[string]any{
		"_required": map[string]any{"all-of": []any{[]any{"gid-name"}}},
	})))

	def := map[string]any{"_object": map[string]any{"_type_ref": "gid-person"}}
	report := v.ValidateDefinition(context.Background(), def, map[string]any{}, "", DefaultOptions())
	code := codeOf(report)
	assert.Equal(t, dicterr.ObjectRuleViolation, code)
}

func TestValidateObjectValueRecursesIntoProperties(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(objectTypeTerm("person-type", "gid-person", map[string]any{
		"_required": map[string]any{"all-of": []any{[]any{"gid-name"}}},
	})))
	require.NoError(t, terms.Insert(descriptorTerm("name", "gid-name", scalarDef("string", nil))))

	def := map[string]any{"_object": map[string]any{"_type_ref": "gid-person"}}

	ok := v.ValidateDefinition(context.Background(), def, map[string]any{"gid-name": "Alice"}, "", DefaultOptions())
	assert.Equal(t, 0, ok.Status.Code)

	bad := v.ValidateDefinition(context.Background(), def, map[string]any{"gid-name": 5.0}, "", DefaultOptions())
	code := codeOf(bad)
	assert.Equal(t, dicterr.KindMismatch, code)
}

func TestValidateObjectValueUnknownPropertyRejectedWhenExpectTerms(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(objectTypeTerm("person-type", "gid-person", nil)))

	def := map[string]any{"_object": map[string]any{"_type_ref": "gid-person"}}
	report := v.ValidateDefinition(context.Background(), def, map[string]any{"gid-unknown": "x"}, "", DefaultOptions())
	code := codeOf(report)
	assert.Equal(t, dicterr.UnknownProperty, code)
}

func TestValidateObjectValueSkipsPropertyChecksWhenExpectTermsFalse(t *testing.T) {
	terms, v := newTestEnv(t)
	require.NoError(t, terms.Insert(objectTypeTerm("person-type", "gid-person", nil)))

	def := map[string]any{"_object": map[string]any{"_type_ref": "gid-person"}}
	opts := DefaultOptions()
	opts.ExpectTerms = false

	report := v.ValidateDefinition(context.Background(), def, map[string]any{"gid-unknown": "x"}, "", opts)
	assert.Equal(t, 0, report.Status.Code)
}

func TestValidateObjectRequiresCodeAndInfoSections(t *testing.T) {
	_, v := newTestEnv(t)

	ok := v.ValidateObject(context.Background(), map[string]any{
		term.SectionCode: map[string]any{term.FieldLID: "x"},
		term.SectionInfo: map[string]any{"_title": map[string]any{"en": "X"}},
	}, "", DefaultOptions())
	assert.Equal(t, 0, ok.Status.Code)

	missing := v.ValidateObject(context.Background(), map[string]any{
		term.SectionInfo: map[string]any{"_title": map[string]any{"en": "X"}},
	}, "", DefaultOptions())
	code := codeOf(missing)
	assert.Equal(t, dicterr.DefinitionError, code)
}

func TestValidateObjectRejectsChangedLockedProperty(t *testing.T) {
	terms, v := newTestEnv(t)

	doc := objectTypeTerm("widget", "gid:widget", map[string]any{"_locked": []any{"color"}})
	doc[term.SectionData] = map[string]any{"_scalar": map[string]any{"_type": "string"}, "color": "red"}
	require.NoError(t, terms.Insert(doc))

	updated := objectTypeTerm("widget", "gid:widget", map[string]any{"_locked": []any{"color"}})
	updated[term.SectionData] = map[string]any{"_scalar": map[string]any{"_type": "string"}, "color": "blue"}
	report := v.ValidateObject(context.Background(), updated, "", DefaultOptions())
	assert.Equal(t, dicterr.ObjectRuleViolation, codeOf(report))

	unchanged := objectTypeTerm("widget", "gid:widget", map[string]any{"_locked": []any{"color"}})
	unchanged[term.SectionData] = map[string]any{"_scalar": map[string]any{"_type": "string"}, "color": "red", "size": "xl"}
	report = v.ValidateObject(context.Background(), unchanged, "", DefaultOptions())
	assert.Equal(t, 0, report.Status.Code)
}

func TestValidateObjects(t *testing.T) {
	_, v := newTestEnv(t)
	objects := []map[string]any{
		{term.SectionCode: map[string]any{term.FieldLID: "a"}, term.SectionInfo: map[string]any{"_title": map[string]any{"en": "A"}}},
		{term.SectionCode: map[string]any{term.FieldLID: "b"}},
	}
	reports := v.ValidateObjects(context.Background(), objects, "", DefaultOptions())
	require.Len(t, reports, 2)
	assert.Equal(t, 0, reports[0].Status.Code)
	assert.NotEqual(t, 0, reports[1].Status.Code)
}

// codeOf reverses a failed Report's Status.Code back to the taxonomy
// Code it came from, for test assertions.
func codeOf(r *Report) dicterr.Code {
	for code, statusCode := range taxonomyStatusCodes {
		if statusCode == r.Status.Code {
			return code
		}
	}
	return ""
}
