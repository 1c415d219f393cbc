package ddl

import "strings"

// MapType renders a logical column kind into a SQL Server column type.
//
// Text becomes Unicode NVARCHAR(MAX) for ordinary columns; key columns go
// through MapKeyType instead. Unknown kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "text", "string":
		return "NVARCHAR(MAX)"
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "real", "double":
		return "FLOAT"
	case "bool", "boolean":
		return "BIT"
	case "date":
		return "DATE"
	case "datetime", "timestamp", "timestamptz":
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// MapKeyType is MapType for columns that participate in a primary key or
// foreign key. SQL Server cannot index NVARCHAR(MAX), so textual key columns
// become NVARCHAR(450), the widest string that fits a 900-byte index key.
func MapKeyType(kind string) string {
	t := MapType(kind)
	if t == "NVARCHAR(MAX)" {
		return "NVARCHAR(450)"
	}
	return t
}
