// Package validator implements the Validator (component E): the
// recursive value-vs-data-definition checker of §4.5, the dominant
// share of the system.
//
// Grounded on the teacher's apoc/schema (constraint evaluation against
// stored node shapes) for the overall "walk a declared shape, report
// violations" posture, and on apoc/convert/apoc/text/apoc/date/apoc/
// number/apoc/spatial for the scalar-level checks, each adapted in its
// own internal/ package (convert, textutil, dateutil, numeric, geo) and
// composed here.
package validator

import (
	"github.com/orneryd/dictionarydb/internal/dateutil"
	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/numeric"
	"github.com/orneryd/dictionarydb/internal/textutil"
)

// Container names one of the five data-definition shapes of §3.2.
type Container string

const (
	ContainerScalar Container = "_scalar"
	ContainerArray  Container = "_array"
	ContainerSet    Container = "_set"
	ContainerDict   Container = "_dict"
	ContainerObject Container = "_object"
)

// Scalar _type values (§3.2).
const (
	TypeBoolean      = "boolean"
	TypeInteger      = "integer"
	TypeNumber       = "number"
	TypeTimestamp    = "timestamp"
	TypeString       = "string"
	TypeStringEnum   = "string_enum"
	TypeStringKey    = "string_key"
	TypeStringHandle = "string_handle"
	TypeObject       = "object"
	TypeGeoJSON      = "geojson"
)

// Definition is a parsed data definition (§3.2), recursive through
// Element (array/set), Key/Value (dict).
type Definition struct {
	Container Container
	Class     string

	// Scalar fields.
	Type   string
	Kind   []string
	MRange *numeric.Range
	NRange *numeric.Range
	DKind  dateutil.Kind
	Regex  string
	Format textutil.Format
	Unit   string

	// Array/set fields.
	Element     *Definition
	MinElements *int
	MaxElements *int

	// Dict fields.
	Key   *Definition
	Value *Definition

	// Object fields: a fixed object-type term _gid, used when the value
	// itself does not declare its own _type (§4.5.2 step 6).
	TypeRef string
}

// ParseDefinition classifies and parses a raw data-definition document
// into a Definition tree. expectTypes requires every scalar definition
// to declare _type (§4.5.3).
func ParseDefinition(raw map[string]any, expectTypes bool) (*Definition, error) {
	container, body, err := classify(raw)
	if err != nil {
		return nil, err
	}

	def := &Definition{Container: container}
	if class, ok := body["_class"].(string); ok {
		def.Class = class
	}

	switch container {
	case ContainerScalar:
		if err := parseScalar(body, expectTypes, def); err != nil {
			return nil, err
		}
	case ContainerArray, ContainerSet:
		if err := parseSequence(body, expectTypes, def); err != nil {
			return nil, err
		}
	case ContainerDict:
		if err := parseDict(body, expectTypes, def); err != nil {
			return nil, err
		}
	case ContainerObject:
		if ref, ok := body["_type_ref"].(string); ok {
			def.TypeRef = ref
		}
	}
	return def, nil
}

func classify(raw map[string]any) (Container, map[string]any, error) {
	for _, c := range []Container{ContainerScalar, ContainerArray, ContainerSet, ContainerDict, ContainerObject} {
		if body, ok := raw[string(c)].(map[string]any); ok {
			return c, body, nil
		}
	}
	return "", nil, dicterr.New(dicterr.DefinitionError, "data definition has no recognized container (_scalar/_array/_set/_dict/_object)")
}

func parseScalar(body map[string]any, expectTypes bool, def *Definition) error {
	typ, _ := body["_type"].(string)
	if typ == "" && expectTypes {
		return dicterr.New(dicterr.DefinitionError, "scalar definition missing required _type")
	}
	def.Type = typ
	def.Kind = stringSlice(body["_kind"])

	if m, ok := body["_mrange"].(map[string]any); ok {
		def.MRange = parseRange(m)
	}
	if m, ok := body["_nrange"].(map[string]any); ok {
		def.NRange = parseRange(m)
	}
	if dkind, ok := body["_dkind"].(string); ok {
		def.DKind = dateutil.Kind(dkind)
	}
	if regex, ok := body["_regex"].(string); ok {
		def.Regex = regex
	}
	if format, ok := body["_format"].(string); ok {
		def.Format = textutil.Format(format)
	}
	if unit, ok := body["_unit"].(string); ok {
		def.Unit = unit
	}
	return nil
}

func parseSequence(body map[string]any, expectTypes bool, def *Definition) error {
	elementRaw, ok := body["_element"].(map[string]any)
	if !ok {
		return dicterr.New(dicterr.DefinitionError, "array/set definition missing _element")
	}
	element, err := ParseDefinition(elementRaw, expectTypes)
	if err != nil {
		return err
	}
	def.Element = element
	def.MinElements = intField(body["_min_elements"])
	def.MaxElements = intField(body["_max_elements"])
	return nil
}

func parseDict(body map[string]any, expectTypes bool, def *Definition) error {
	keyRaw, ok := body["_key"].(map[string]any)
	if !ok {
		return dicterr.New(dicterr.DefinitionError, "dict definition missing _key")
	}
	valueRaw, ok := body["_value"].(map[string]any)
	if !ok {
		return dicterr.New(dicterr.DefinitionError, "dict definition missing _value")
	}
	key, err := ParseDefinition(keyRaw, expectTypes)
	if err != nil {
		return err
	}
	value, err := ParseDefinition(valueRaw, expectTypes)
	if err != nil {
		return err
	}
	def.Key = key
	def.Value = value
	return nil
}

func parseRange(m map[string]any) *numeric.Range {
	r := &numeric.Range{}
	if min, ok := floatField(m["min"]); ok {
		r.Min = &min
	}
	if max, ok := floatField(m["max"]); ok {
		r.Max = &max
	}
	return r
}

func floatField(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func intField(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func stringSlice(v any) []string {
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
