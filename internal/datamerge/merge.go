// Package datamerge implements the recursive edge/link _data merge
// semantics of §4.3.1: traverse child_data key-by-key, nulls delete,
// nested objects recurse, anything else replaces; report whether any
// change actually occurred so set-edges can tell "existing" from
// "updated" (§4.3.1 step 3).
//
// Grounded on the teacher's apoc/map (Merge/RemoveKey/SetKey — general
// map surgery for Cypher procedures) and apoc/diff (Merge/Patch — a
// strategy-driven two-map merge). datamerge.Apply is the same shape of
// operation, specialized to the dictionary's null-deletes convention.
package datamerge

// Apply merges patch into a copy of data, per the recursive rule of
// §4.3.1: a nil value deletes the key, a nested map[string]any value
// recurses, anything else replaces the key verbatim. It returns a new
// top-level map (data is never mutated in place — callers hold onto the
// previous version for the "existing vs updated" decision) and whether
// any key actually changed value.
func Apply(data, patch map[string]any) (result map[string]any, changed bool) {
	result = cloneShallow(data)

	for key, patchVal := range patch {
		existing, had := result[key]

		if patchVal == nil {
			if had {
				delete(result, key)
				changed = true
			}
			continue
		}

		if patchMap, ok := patchVal.(map[string]any); ok {
			var existingMap map[string]any
			wasMap := false
			if had {
				existingMap, wasMap = existing.(map[string]any)
			}
			merged, sub := Apply(existingMap, patchMap)
			result[key] = merged
			if sub || !wasMap {
				changed = true
			}
			continue
		}

		if !had || !Equal(existing, patchVal) {
			result[key] = patchVal
			changed = true
		}
	}

	return result, changed
}

// Reset clears data to an empty object, reporting whether data was
// non-empty before the reset (used for the top-level child_data == nil sentinel of
// §4.3.1: "reset _data to empty object").
func Reset(data map[string]any) (result map[string]any, changed bool) {
	return map[string]any{}, len(data) > 0
}

func cloneShallow(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal compares two merge-leaf or value-tree values. Data definitions
// and descriptor values only ever carry JSON-shaped leaves (bool/
// float64/string/[]any/nested maps after decode), so a shallow
// type-switch comparison plus recursion into slices/maps is sufficient
// without reaching for reflect.DeepEqual on the hot path. Exported so
// other components (the validator's set-uniqueness check, the link
// engine's existing-vs-updated decision) share one equality rule with
// the merge algorithm instead of redefining it.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !Equal(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
