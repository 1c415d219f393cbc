// Package schema declares the destination schema: a small, database-agnostic
// table model plus the fixed arXiv metadata tables built from it.
//
// Column types here are logical kinds ("text", "int", "date"); each storage
// backend maps them onto dialect SQL types at DDL-render time.
package schema

// ColumnDef describes a single column of a destination table.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - Type: logical kind ("text", "int", "date", ...), mapped per dialect
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// ForeignKey describes a single-column reference to another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef holds a table name, its ordered columns, and any foreign keys.
// Column order is load-bearing: it defines the insert column order used by
// the mapper and every storage backend.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
}

// ColumnNames returns the ordered column names of t.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
