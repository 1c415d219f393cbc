package ddl

import "strings"

// MapType renders a logical column kind into a SQLite column type.
//
// SQLite is dynamically typed, so the mapping targets the canonical
// affinities: integers and booleans share INTEGER, dates and datetimes are
// stored as ISO-8601 TEXT, and unknown kinds fall back to TEXT.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "text", "string":
		return "TEXT"
	case "int", "integer", "bigint":
		return "INTEGER"
	case "float", "real", "double":
		return "REAL"
	case "bool", "boolean":
		return "INTEGER" // 0 or 1
	case "date", "datetime", "timestamp":
		return "TEXT" // ISO-8601
	default:
		return "TEXT"
	}
}
