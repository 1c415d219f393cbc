package ddl

import (
	"context"
	"strings"
	"testing"

	"arxload/internal/schema"
	"arxload/internal/storage"
)

// TestFromSchemaUsesKeyTypesForKeyColumns verifies that primary key and
// foreign key columns are mapped through MapKeyType so they stay within SQL
// Server's index key size limit, while ordinary columns keep NVARCHAR(MAX).
func TestFromSchemaUsesKeyTypesForKeyColumns(t *testing.T) {
	t.Parallel()

	docs := FromSchema(schema.Documents())
	for _, c := range docs.Columns {
		switch c.Name {
		case "id":
			if c.SQLType != "NVARCHAR(450)" {
				t.Fatalf("documents.id SQLType = %q, want NVARCHAR(450)", c.SQLType)
			}
			if !c.PrimaryKey {
				t.Fatalf("documents.id PrimaryKey = false, want true")
			}
		case "abstract":
			if c.SQLType != "NVARCHAR(MAX)" {
				t.Fatalf("documents.abstract SQLType = %q, want NVARCHAR(MAX)", c.SQLType)
			}
		case "update_date":
			if c.SQLType != "DATE" {
				t.Fatalf("documents.update_date SQLType = %q, want DATE", c.SQLType)
			}
		}
	}

	cats := FromSchema(schema.Categories())
	for _, c := range cats.Columns {
		if c.Name == "arxiv_id" && c.SQLType != "NVARCHAR(450)" {
			t.Fatalf("categories.arxiv_id SQLType = %q, want NVARCHAR(450)", c.SQLType)
		}
	}
	if len(cats.ForeignKeys) != 1 || cats.ForeignKeys[0].RefTable != schema.TableDocuments {
		t.Fatalf("categories foreign keys = %+v, want one reference to %s", cats.ForeignKeys, schema.TableDocuments)
	}
}

// TestEnsureTablesAppliesEveryDestinationTable verifies that EnsureTables
// renders and executes one CREATE script per destination table, parent first.
func TestEnsureTablesAppliesEveryDestinationTable(t *testing.T) {
	t.Parallel()

	repo := &recordingRepository{}
	if err := EnsureTables(context.Background(), repo, schema.Tables()); err != nil {
		t.Fatalf("EnsureTables() error = %v", err)
	}

	tables := schema.Tables()
	if len(repo.allSQL) != len(tables) {
		t.Fatalf("repo.Exec called %d times, want %d", len(repo.allSQL), len(tables))
	}
	if !strings.Contains(repo.allSQL[0], quoteIdent(schema.TableDocuments)) {
		t.Fatalf("first statement does not create %s:\n%s", schema.TableDocuments, repo.allSQL[0])
	}
	for _, sql := range repo.allSQL[1:] {
		if !strings.Contains(sql, "REFERENCES [documents] ([id])") {
			t.Fatalf("child statement missing documents reference:\n%s", sql)
		}
	}
}

// recordingRepository captures every executed statement.
type recordingRepository struct {
	storage.Repository
	allSQL []string
}

func (r *recordingRepository) Exec(ctx context.Context, sql string) error {
	r.allSQL = append(r.allSQL, sql)
	return nil
}
