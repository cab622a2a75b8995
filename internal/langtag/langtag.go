// Package langtag resolves the §6.3 language-tag convention used to
// localize a term's _info mappings: a tag is either
// "iso_639_3_<code>", "iso_639_1_<code>", the literal "iso_639_3_@"
// (any language), or "all" (return the full mapping unresolved).
//
// This is plain map lookup over a fixed, small rule set; nothing in the
// example corpus exercises a localization library for anything this
// shallow (the teacher ships no i18n layer at all), so it is written
// directly against the standard library rather than reaching for an
// ecosystem message-catalog package.
package langtag

// AnyLanguage is the sentinel mapping key meaning "valid regardless of
// requested language".
const AnyLanguage = "iso_639_3_@"

// All is the tag meaning "return the full mapping, do not resolve".
const All = "all"

// Resolve selects one value out of a language-tag mapping (a
// map[string]any whose keys are tags like "iso_639_3_eng") according to
// the requested tag, falling back through AnyLanguage and then
// defaultTag. ok is false only when none of the candidates are present.
func Resolve(mapping map[string]any, tag, defaultTag string) (value any, ok bool) {
	if mapping == nil {
		return nil, false
	}
	if tag == All {
		return mapping, true
	}
	if v, present := mapping[tag]; present {
		return v, true
	}
	if v, present := mapping[AnyLanguage]; present {
		return v, true
	}
	if defaultTag != "" && defaultTag != tag {
		if v, present := mapping[defaultTag]; present {
			return v, true
		}
	}
	return nil, false
}

// LocalizeInfo returns a copy of an _info section with every
// language-mapped field (fields named in mappedFields) resolved to a
// single value for tag, leaving non-mapped fields untouched. Fields
// that fail to resolve are dropped from the result rather than left as
// a raw mapping, so callers always see either a localized value or
// absence.
func LocalizeInfo(info map[string]any, mappedFields []string, tag, defaultTag string) map[string]any {
	out := make(map[string]any, len(info))
	mapped := make(map[string]bool, len(mappedFields))
	for _, f := range mappedFields {
		mapped[f] = true
	}

	for key, val := range info {
		if !mapped[key] {
			out[key] = val
			continue
		}
		mapping, isMapping := val.(map[string]any)
		if !isMapping {
			out[key] = val
			continue
		}
		if resolved, ok := Resolve(mapping, tag, defaultTag); ok {
			out[key] = resolved
		}
	}
	return out
}
