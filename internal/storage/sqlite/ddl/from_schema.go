package ddl

import (
	gddl "arxload/internal/ddl"
	"arxload/internal/schema"
)

// FromSchema converts a destination table definition into the SQLite-oriented
// generic TableDef: logical column types are mapped via MapType, primary key
// and nullability flags carry over, and foreign keys are preserved for the
// CREATE TABLE renderer.
func FromSchema(t schema.TableDef) gddl.TableDef {
	out := gddl.TableDef{FQN: t.Name}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, gddl.ColumnDef{
			Name:       c.Name,
			SQLType:    MapType(c.Type),
			Nullable:   c.Nullable,
			PrimaryKey: c.PrimaryKey,
		})
	}
	for _, fk := range t.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, gddl.ForeignKeyDef{
			Column:    fk.Column,
			RefTable:  fk.RefTable,
			RefColumn: fk.RefColumn,
		})
	}
	return out
}
