// Package ddl renders ddl.TableDef definitions into T-SQL CREATE TABLE
// scripts for SQL Server.
//
// Identifiers use bracket quoting ([schema].[table], [col]), defaults pass
// through as raw SQL, and the primary key comes out as a table constraint.
// T-SQL has no CREATE TABLE IF NOT EXISTS, so the script wraps CREATE TABLE
// in an IF OBJECT_ID(...) IS NULL guard instead.
package ddl

import (
	"fmt"
	"strings"

	gddl "arxload/internal/ddl"
)

// BuildCreateTableSQL renders one table definition into a guarded T-SQL
// script:
//
//	IF OBJECT_ID(N'[dbo].[documents]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[documents] (
//	    [id] NVARCHAR(450) NOT NULL,
//	    [title] NVARCHAR(MAX),
//	    PRIMARY KEY ([id]),
//	    FOREIGN KEY ([document_id]) REFERENCES [documents] ([id])
//	  );
//	END
//
// Dotted names such as "dbo.documents" are quoted per segment. The script
// covers only what the bootstrap needs; callers append further DDL
// themselves when they want more.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("mssql ddl: %w", err)
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

	table := quoteFQN(strings.TrimSpace(t.FQN))
	return "IF OBJECT_ID(N'" + table + "', N'U') IS NULL\nBEGIN\n" +
		"  CREATE TABLE " + table + " (\n    " +
		strings.Join(clauses, ",\n    ") + "\n  );\nEND;", nil
}

// columnClause renders one column: quoted name, type, then NOT NULL and
// DEFAULT when declared. The default is emitted as a raw SQL expression.
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

// quoteIdent wraps one identifier segment in brackets, doubling any closing
// brackets it contains: "title" becomes [title], "odd]name" becomes
// [odd]]name].
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// quoteFQN bracket-quotes each dot-separated segment of a table name, so
// "dbo.documents" becomes [dbo].[documents]. Segments are trimmed and empty
// ones dropped.
func quoteFQN(fqn string) string {
	var quoted []string
	for _, seg := range strings.Split(fqn, ".") {
		if seg = strings.TrimSpace(seg); seg != "" {
			quoted = append(quoted, quoteIdent(seg))
		}
	}
	return strings.Join(quoted, ".")
}
