package ddl

import "strings"

// MapType renders a logical column kind into a Postgres column type.
//
// Integers widen to BIGINT so identifier columns never overflow, dates keep
// their own DATE type, and datetimes are stored with time zone. Unknown
// kinds fall back to TEXT.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "text", "string":
		return "TEXT"
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "real", "double":
		return "DOUBLE PRECISION"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "datetime", "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
