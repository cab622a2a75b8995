package objectrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReadsAllSubSections(t *testing.T) {
	raw := map[string]any{
		"_required": map[string]any{
			"all-of": []any{[]any{"a", "b"}},
			"one-of": []any{[]any{"c", "d"}},
			"any-of": []any{[]any{"e", "f"}},
		},
		"_banned":   []any{"g"},
		"_computed": []any{"h"},
		"_locked":   []any{"i"},
	}
	rule := Parse(raw)
	assert.Equal(t, [][]string{{"a", "b"}}, rule.Required.AllOf)
	assert.Equal(t, [][]string{{"c", "d"}}, rule.Required.OneOf)
	assert.Equal(t, [][]string{{"e", "f"}}, rule.Required.AnyOf)
	assert.Equal(t, []string{"g"}, rule.Banned)
	assert.Equal(t, []string{"h"}, rule.Computed)
	assert.Equal(t, []string{"i"}, rule.Locked)
}

func TestEvaluateAllOfMissingProperty(t *testing.T) {
	rule := Rule{Required: Required{AllOf: [][]string{{"a", "b"}}}}
	violations := Evaluate(rule, map[string]bool{"a": true}, nil)
	assert.Len(t, violations, 1)
	assert.Equal(t, MissingRequired, violations[0].Kind)
	assert.Equal(t, "b", violations[0].Property)
}

func TestEvaluateOneOfRequiresExactlyOne(t *testing.T) {
	rule := Rule{Required: Required{OneOf: [][]string{{"a", "b"}}}}

	none := Evaluate(rule, map[string]bool{}, nil)
	assert.Len(t, none, 1)
	assert.Equal(t, AmbiguousOneOf, none[0].Kind)

	both := Evaluate(rule, map[string]bool{"a": true, "b": true}, nil)
	assert.Len(t, both, 1)

	exactlyOne := Evaluate(rule, map[string]bool{"a": true}, nil)
	assert.Empty(t, exactlyOne)
}

func TestEvaluateAnyOfRequiresAtLeastOne(t *testing.T) {
	rule := Rule{Required: Required{AnyOf: [][]string{{"a", "b"}}}}
	assert.Empty(t, Evaluate(rule, map[string]bool{"a": true}, nil))

	violations := Evaluate(rule, map[string]bool{}, nil)
	assert.Len(t, violations, 1)
	assert.Equal(t, UnsatisfiedAnyOf, violations[0].Kind)
}

func TestEvaluateBannedPropertyPresent(t *testing.T) {
	rule := Rule{Banned: []string{"secret"}}
	violations := Evaluate(rule, map[string]bool{"secret": true}, nil)
	assert.Len(t, violations, 1)
	assert.Equal(t, BannedPresent, violations[0].Kind)
}

func TestEvaluateComputedPropertySuppliedByUser(t *testing.T) {
	rule := Rule{Computed: []string{"created_at"}}
	violations := Evaluate(rule, map[string]bool{}, map[string]bool{"created_at": true})
	assert.Len(t, violations, 1)
	assert.Equal(t, ComputedSupplied, violations[0].Kind)
}

func TestIsLocked(t *testing.T) {
	rule := Rule{Locked: []string{"gid"}}
	assert.True(t, IsLocked(rule, "gid"))
	assert.False(t, IsLocked(rule, "other"))
}
