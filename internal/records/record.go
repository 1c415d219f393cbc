// Package records defines the generic record type produced by parsers and
// consumed by the mapper. A Record is one decoded JSON object; values keep
// the decoder's dynamic types (string, json.Number, bool, []any,
// map[string]any, nil).
package records

import (
	"encoding/json"
)

// Record is a single parsed input object. Records are immutable once read:
// downstream stages read fields but never mutate the map.
type Record map[string]any

// Has reports whether key is present, even with a null value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the value for key when it is a JSON string.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Text returns the value for key as a SQL-storable scalar. Missing keys and
// JSON nulls become nil (SQL NULL); numbers keep their literal form; booleans
// become "true"/"false". Structured values (arrays, objects) are not scalars
// and also map to nil; child-table extraction reads them via List instead.
func (r Record) Text(key string) any {
	v, ok := r[key]
	if !ok {
		return nil
	}
	return Scalar(v)
}

// Scalar converts a decoded JSON value to a SQL-storable scalar with the
// same rules as Text. It exists for child-table extraction, which reads
// values out of nested arrays and objects rather than by key.
func Scalar(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return nil
	}
}

// List returns the value for key when it is a JSON array.
func (r Record) List(key string) []any {
	v, ok := r[key]
	if !ok {
		return nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil
	}
	return l
}
