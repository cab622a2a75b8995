// Package objectrule evaluates the object-type _rule section of §3.3:
// _required (all-of/one-of/any-of sets of property _gids), _banned,
// _computed, and _locked.
//
// Grounded on the teacher's apoc/schema (constraint assertion over a
// label's properties — NodeConstraintExists, Assert) generalized from
// Neo4j's fixed constraint kinds to the dictionary's required/banned/
// computed/locked rule shape.
package objectrule

import "fmt"

// Required is the _required sub-structure: any number of all-of sets,
// one-of lists, and any-of lists, each naming property _gids (§3.3).
type Required struct {
	AllOf [][]string
	OneOf [][]string
	AnyOf [][]string
}

// Rule is the parsed _rule section of an object descriptor.
type Rule struct {
	Required Required
	Banned   []string
	Computed []string
	Locked   []string
}

// Parse reads a raw _rule map (as stored on a term document) into a
// Rule. Absent sub-keys produce zero-value (empty) rule components,
// matching "an object descriptor has a _rule with..." being entirely
// optional per field.
func Parse(raw map[string]any) Rule {
	var r Rule
	if req, ok := raw["_required"].(map[string]any); ok {
		r.Required.AllOf = stringSetList(req["all-of"])
		r.Required.OneOf = stringSetList(req["one-of"])
		r.Required.AnyOf = stringSetList(req["any-of"])
	}
	r.Banned = stringList(raw["_banned"])
	r.Computed = stringList(raw["_computed"])
	r.Locked = stringList(raw["_locked"])
	return r
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

// stringSetList parses a list of string-lists, e.g. _required.all-of =
// [["a","b"], ["c"]] meaning two independent all-of sets.
func stringSetList(v any) [][]string {
	outer, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([][]string, 0, len(outer))
	for _, item := range outer {
		out = append(out, stringList(item))
	}
	return out
}

// Kind names which clause of §3.3 a Violation failed.
type Kind string

const (
	MissingRequired  Kind = "missing-required"
	AmbiguousOneOf   Kind = "ambiguous-one-of"
	UnsatisfiedAnyOf Kind = "unsatisfied-any-of"
	BannedPresent    Kind = "banned-present"
	ComputedSupplied Kind = "computed-supplied"
)

// Violation is one rule failure, addressed by the property _gid it
// concerns (empty for a rule violated at the object level, like one-of/
// any-of, which name a whole set rather than a single property).
type Violation struct {
	Property string
	Kind     Kind
	Message  string
}

// Evaluate checks rule against the set of property _gids present on a
// value (present) and, for _computed, the set the caller actually
// supplied in the user-provided value (userSupplied — computed
// properties must not appear there even if a prior save put them in
// the canonical record).
func Evaluate(rule Rule, present map[string]bool, userSupplied map[string]bool) []Violation {
	var violations []Violation

	for _, set := range rule.Required.AllOf {
		for _, gid := range set {
			if !present[gid] {
				violations = append(violations, Violation{
					Property: gid, Kind: MissingRequired,
					Message: fmt.Sprintf("required property %q (all-of) is missing", gid),
				})
			}
		}
	}

	for _, set := range rule.Required.OneOf {
		count := countPresent(set, present)
		if count != 1 {
			violations = append(violations, Violation{
				Kind: AmbiguousOneOf,
				Message: fmt.Sprintf("exactly one of %v required, found %d", set, count),
			})
		}
	}

	for _, set := range rule.Required.AnyOf {
		if countPresent(set, present) == 0 {
			violations = append(violations, Violation{
				Kind:    UnsatisfiedAnyOf,
				Message: fmt.Sprintf("at least one of %v required, found none", set),
			})
		}
	}

	for _, gid := range rule.Banned {
		if present[gid] {
			violations = append(violations, Violation{
				Property: gid, Kind: BannedPresent,
				Message: fmt.Sprintf("property %q is banned on this object type", gid),
			})
		}
	}

	for _, gid := range rule.Computed {
		if userSupplied[gid] {
			violations = append(violations, Violation{
				Property: gid, Kind: ComputedSupplied,
				Message: fmt.Sprintf("property %q is computed and must not be supplied", gid),
			})
		}
	}

	return violations
}

func countPresent(set []string, present map[string]bool) int {
	n := 0
	for _, gid := range set {
		if present[gid] {
			n++
		}
	}
	return n
}

// IsLocked reports whether gid is in rule's _locked set, meaning it
// cannot change once set (enforced by callers comparing old vs new
// values before accepting an update).
func IsLocked(rule Rule, gid string) bool {
	for _, g := range rule.Locked {
		if g == gid {
			return true
		}
	}
	return false
}
