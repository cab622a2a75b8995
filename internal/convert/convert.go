// Package convert provides scalar type checks and coercions used by the
// validator's scalar branch (§4.5.2 step 3): boolean/integer/number/
// string checks against a decoded JSON value.
//
// Adapted from the teacher's apoc/convert (and its near-duplicate
// pkg/convert), which converted loosely-typed Cypher parameters between
// representations; here the same switch-on-dynamic-type approach checks
// whether a value already *is* a given scalar kind, since the validator
// never coerces user input, only reports whether it matches the
// descriptor's declared _type.
package convert

// IsBoolean reports whether v decoded as a JSON boolean.
func IsBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

// IsInteger reports whether v is a JSON number with no fractional part.
// encoding/json decodes numbers as float64 by default, so integers
// arrive as whole-valued float64s.
func IsInteger(v any) bool {
	f, ok := AsFloat64(v)
	if !ok {
		return false
	}
	return f == float64(int64(f))
}

// IsNumber reports whether v is any JSON number.
func IsNumber(v any) bool {
	_, ok := AsFloat64(v)
	return ok
}

// IsString reports whether v is a JSON string.
func IsString(v any) bool {
	_, ok := v.(string)
	return ok
}

// AsFloat64 extracts a numeric value regardless of the concrete Go
// numeric type the caller's decoder produced.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// AsString extracts a string value, returning ("", false) for anything
// else — used by the string_enum/string_key/string_handle branches which
// must not silently stringify non-strings.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
