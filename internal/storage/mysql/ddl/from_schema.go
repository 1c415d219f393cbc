package ddl

import (
	gddl "arxload/internal/ddl"
	"arxload/internal/schema"
)

// FromSchema converts a destination table definition into the MySQL-oriented
// generic TableDef. Columns that participate in the primary key or a foreign
// key are mapped through MapKeyType so textual keys become indexable
// VARCHAR(255); everything else goes through MapType.
func FromSchema(t schema.TableDef) gddl.TableDef {
	keyCols := make(map[string]bool, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		keyCols[fk.Column] = true
	}

	out := gddl.TableDef{FQN: t.Name}
	for _, c := range t.Columns {
		mapType := MapType
		if c.PrimaryKey || keyCols[c.Name] {
			mapType = MapKeyType
		}
		out.Columns = append(out.Columns, gddl.ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Type),
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
