package ddl

import "strings"

// MapType renders a logical column kind into a MySQL column type.
//
// Text stays TEXT for ordinary columns; key columns go through MapKeyType
// instead. Unknown kinds fall back to TEXT.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "text", "string":
		return "TEXT"
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "real", "double":
		return "DOUBLE"
	case "bool", "boolean":
		return "TINYINT(1)"
	case "date":
		return "DATE"
	case "datetime", "timestamp", "timestamptz":
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// MapKeyType is MapType for columns that participate in a primary key or
// foreign key. MySQL cannot index a TEXT column without a prefix length, so
// textual key columns become VARCHAR(255) instead.
func MapKeyType(kind string) string {
	t := MapType(kind)
	if t == "TEXT" {
		return "VARCHAR(255)"
	}
	return t
}
