// Package geo validates values declared with the `geojson` scalar _type
// (§3.2). It accepts the handful of GeoJSON geometry shapes a descriptor
// is realistically used for, without being a full GeoJSON library.
//
// Grounded on the teacher's apoc/spatial package (Point, ToGeoJSON,
// FromGeoJSON), which represents geometry as a lightweight Point plus
// map[string]interface{} GeoJSON; here that same loose-map shape is
// validated rather than round-tripped to/from a Point, since the
// validator only needs "is this well-formed GeoJSON", not geodesy.
package geo

import "fmt"

var validTypes = map[string]bool{
	"Point":           true,
	"LineString":      true,
	"Polygon":         true,
	"MultiPoint":      true,
	"MultiLineString": true,
	"MultiPolygon":    true,
	"GeometryCollection": true,
}

// Validate reports whether v is a structurally valid GeoJSON geometry
// object: a map with a recognized "type" and, for anything but
// GeometryCollection, a "coordinates" array of numbers (arbitrarily
// nested, per the geometry's dimensionality).
func Validate(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("geojson value must be an object")
	}

	typ, ok := m["type"].(string)
	if !ok || !validTypes[typ] {
		return fmt.Errorf("geojson value has unrecognized or missing \"type\"")
	}

	if typ == "GeometryCollection" {
		if _, ok := m["geometries"].([]any); !ok {
			return fmt.Errorf("GeometryCollection requires a \"geometries\" array")
		}
		return nil
	}

	coords, ok := m["coordinates"]
	if !ok {
		return fmt.Errorf("geojson value requires \"coordinates\"")
	}
	if !isNumericNesting(coords) {
		return fmt.Errorf("geojson \"coordinates\" must be a (possibly nested) array of numbers")
	}
	return nil
}

func isNumericNesting(v any) bool {
	switch t := v.(type) {
	case float64, float32, int:
		return true
	case []any:
		for _, e := range t {
			if !isNumericNesting(e) {
				return false
			}
		}
		return len(t) > 0
	default:
		return false
	}
}
