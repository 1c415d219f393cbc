// Package ddl renders ddl.TableDef definitions into Postgres CREATE TABLE
// statements.
//
// Identifiers are double quoted per segment, statements are idempotent
// through IF NOT EXISTS, and defaults pass through as raw SQL. The primary
// key is emitted as a table constraint with its columns sorted, so one
// definition always renders one statement.
package ddl

import (
	"fmt"
	"sort"
	"strings"

	gddl "arxload/internal/ddl"
)

// BuildCreateTableSQL renders one table definition into a Postgres CREATE
// TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS "public"."documents" (
//	  "id" TEXT NOT NULL,
//	  "title" TEXT,
//	  PRIMARY KEY ("id")
//	);
//
// Dotted names such as "public.documents" are quoted per segment. Key
// columns are forced NOT NULL whatever their declared nullability.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("postgres ddl: %w", err)
	}

	clauses := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	for _, c := range t.Columns {
		clauses = append(clauses, columnClause(c))
	}
	if pks := t.PrimaryKeyColumns(); len(pks) > 0 {
		sort.Strings(pks)
		clauses = append(clauses, "PRIMARY KEY ("+quoteList(pks)+")")
	}
	for _, fk := range t.ForeignKeys {
		clauses = append(clauses,
			"FOREIGN KEY ("+quoteIdent(fk.Column)+") REFERENCES "+quoteFQN(fk.RefTable)+" ("+quoteIdent(fk.RefColumn)+")")
	}

	return "CREATE TABLE IF NOT EXISTS " + quoteFQN(strings.TrimSpace(t.FQN)) +
		" (\n  " + strings.Join(clauses, ",\n  ") + "\n);", nil
}

// columnClause renders one column: quoted name, type, then NOT NULL and
// DEFAULT when they apply.
func columnClause(c gddl.ColumnDef) string {
	parts := []string{quoteIdent(strings.TrimSpace(c.Name)), strings.TrimSpace(c.SQLType)}
	if !c.Nullable || c.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if def := strings.TrimSpace(c.Default); def != "" {
		parts = append(parts, "DEFAULT", def)
	}
	return strings.Join(parts, " ")
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// quoteFQN quotes each dot-separated segment of a table name; segments are
// trimmed and empty ones dropped.
func quoteFQN(fqn string) string {
	var quoted []string
	for _, seg := range strings.Split(fqn, ".") {
		if seg = strings.TrimSpace(seg); seg != "" {
			quoted = append(quoted, quoteIdent(seg))
		}
	}
	return strings.Join(quoted, ".")
}
