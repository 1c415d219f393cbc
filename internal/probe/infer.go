package probe

import (
	"encoding/json"
	"time"
)

// inferTypeForField guesses a destination-friendly type among boolean,
// integer, real, date, timestamp, list, object, and text. Every sampled
// value must satisfy the narrower kind; one contrary value widens the
// field, to real for mixed numerics, to timestamp for mixed date kinds,
// and to text otherwise.
func inferTypeForField(values []any) string {
	if len(values) == 0 {
		return "text"
	}

	kind := ""
	for _, v := range values {
		k := valueKind(v)
		if kind == "" || k == kind {
			kind = k
			continue
		}
		switch {
		case bothOf(kind, k, "integer", "real"):
			kind = "real"
		case bothOf(kind, k, "date", "timestamp"):
			kind = "timestamp"
		default:
			return "text"
		}
	}
	return kind
}

// bothOf reports whether {x, y} == {a, b} in either order.
func bothOf(x, y, a, b string) bool {
	return (x == a && y == b) || (x == b && y == a)
}

// valueKind classifies one decoded JSON value. Numbers arrive as
// json.Number (the reader decodes with UseNumber), so integer versus real
// is decided from the literal, not a float round-trip.
func valueKind(v any) string {
	switch t := v.(type) {
	case bool:
		return "boolean"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "integer"
		}
		return "real"
	case string:
		return stringKind(t)
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return "text"
	}
}

// stringKind refines string values: strings that parse as a calendar date
// or timestamp report as such, everything else stays text. There is no
// numeric sniffing on strings; identifiers like "0704.0001" must stay text.
func stringKind(s string) string {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return "timestamp"
		}
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return "date"
		}
	}
	return "text"
}

// dateLayouts are common date formats without a time component.
var dateLayouts = []string{
	"2006-01-02", // ISO
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
}

// timestampLayouts are common timestamp formats, including the RFC1123
// form the arXiv dump uses for version creation times.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
}
