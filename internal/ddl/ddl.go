// Package ddl holds the dialect-neutral table model that the storage
// backends render CREATE TABLE statements from.
//
// The model carries names and types verbatim: no quoting, no dialect
// clauses. Each backend's ddl subpackage owns its own rendering (identifier
// quoting, IF NOT EXISTS versus OBJECT_ID guards, key-column type
// overrides) and calls Validate before it renders, so every dialect rejects
// the same malformed definitions.
package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef is one column of a table definition. Name and SQLType are
// emitted by renderers after quoting; Default is a raw SQL expression,
// emitted as-is.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// ForeignKeyDef is a single-column foreign key. RefTable uses the same
// dotted form as TableDef.FQN.
type ForeignKeyDef struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef is one destination table: a dotted fully-qualified name, its
// columns in declaration order, and any foreign keys.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKeyDef
}

// Validate reports the first structural problem with the definition: a
// blank table name, a table without columns, a column without a name or
// SQL type, or a foreign key with a missing piece. Whitespace-only names
// count as blank.
func (t TableDef) Validate() error {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", fqn)
	}
	for i, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("table %s: column %d has no name", fqn, i)
		}
		if strings.TrimSpace(c.SQLType) == "" {
			return fmt.Errorf("table %s: column %s has no SQL type", fqn, name)
		}
	}
	for _, fk := range t.ForeignKeys {
		if fk.Column == "" || fk.RefTable == "" || fk.RefColumn == "" {
			return fmt.Errorf("table %s: incomplete foreign key (%q references %s.%s)",
				fqn, fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
	return nil
}

// PrimaryKeyColumns returns the names of the primary-key columns in
// declaration order, trimmed.
func (t TableDef) PrimaryKeyColumns() []string {
	var pks []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, strings.TrimSpace(c.Name))
		}
	}
	return pks
}
