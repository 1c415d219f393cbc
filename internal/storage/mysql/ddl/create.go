// Package ddl renders ddl.TableDef definitions into MySQL CREATE TABLE
// statements.
//
// Identifiers are backtick quoted, statements are idempotent through IF NOT
// EXISTS, defaults pass through as raw SQL, and key constraints come out as
// table clauses.
package ddl

import (
	"fmt"
	"strings"

	gddl "arxload/internal/ddl"
)

// BuildCreateTableSQL renders one table definition into a MySQL CREATE
// TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS `documents` (
//	  `id` VARCHAR(255) NOT NULL,
//	  `title` TEXT,
//	  PRIMARY KEY (`id`),
//	  FOREIGN KEY (`arxiv_id`) REFERENCES `documents` (`id`)
//	);
//
// Dotted names such as "arxiv.documents" are quoted per segment. NOT NULL
// follows the declared nullability; MySQL makes key columns NOT NULL on its
// own.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("mysql ddl: %w", err)
	}

	clauses := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	for _, c := range t.Columns {
		clauses = append(clauses, columnClause(c))
	}
	if pks := t.PrimaryKeyColumns(); len(pks) > 0 {
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
// DEFAULT when declared.
func columnClause(c gddl.ColumnDef) string {
	parts := []string{quoteIdent(strings.TrimSpace(c.Name)), strings.TrimSpace(c.SQLType)}
	if !c.Nullable {
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

// quoteIdent backtick-quotes one identifier segment, doubling embedded
// backticks.
func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func quoteFQN(fqn string) string {
	var quoted []string
	for _, seg := range strings.Split(fqn, ".") {
		if seg = strings.TrimSpace(seg); seg != "" {
			quoted = append(quoted, quoteIdent(seg))
		}
	}
	return strings.Join(quoted, ".")
}
