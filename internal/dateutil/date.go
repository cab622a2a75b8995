// Package dateutil validates `timestamp` scalars against a declared
// _dkind granularity (§3.2): day, month, year, or full datetime.
//
// Adapted from the teacher's apoc/date package, which parses/formats
// timestamps for Cypher procedures using Java-style format strings
// translated to Go layouts; the dictionary core only needs to check
// that a string literal actually matches one of a small, fixed set of
// RFC3339-family granularities, so the Java-format translation layer
// is dropped and a direct layout table takes its place.
package dateutil

import "time"

// Kind is a _dkind granularity value.
type Kind string

const (
	KindYear     Kind = "year"
	KindMonth    Kind = "month"
	KindDay      Kind = "day"
	KindDateTime Kind = "datetime"
)

var layouts = map[Kind]string{
	KindYear:     "2006",
	KindMonth:    "2006-01",
	KindDay:      "2006-01-02",
	KindDateTime: time.RFC3339,
}

// Validate reports whether value matches the layout for kind. An
// unrecognized kind is a DefinitionError at the caller (returned here as
// a plain error so the validator can decide how to tag it).
func Validate(kind Kind, value string) (bool, error) {
	layout, ok := layouts[kind]
	if !ok {
		return false, unknownKindErr(kind)
	}
	_, err := time.Parse(layout, value)
	return err == nil, nil
}

type unknownKind Kind

func (k unknownKind) Error() string { return "unrecognized date kind: " + string(k) }

func unknownKindErr(k Kind) error { return unknownKind(k) }
