package ddl

import (
	"context"
	"strings"
	"testing"

	gddl "arxload/internal/ddl"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// TestBuildCreateTableSQLBasic verifies backtick quoting, NOT NULL handling,
// and the PRIMARY KEY / FOREIGN KEY constraint clauses.
func TestBuildCreateTableSQLBasic(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN: "categories",
		Columns: []gddl.ColumnDef{
			{Name: "arxiv_id", SQLType: "VARCHAR(255)", Nullable: false},
			{Name: "category", SQLType: "TEXT", Nullable: false},
		},
		ForeignKeys: []gddl.ForeignKeyDef{
			{Column: "arxiv_id", RefTable: "documents", RefColumn: "id"},
		},
	}

	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}

	want := "" +
		"CREATE TABLE IF NOT EXISTS `categories` (\n" +
		"  `arxiv_id` VARCHAR(255) NOT NULL,\n" +
		"  `category` TEXT NOT NULL,\n" +
		"  FOREIGN KEY (`arxiv_id`) REFERENCES `documents` (`id`)\n" +
		");"

	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}
}

// TestBuildCreateTableSQLErrors validates basic input validation.
func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  gddl.TableDef
	}{
		{name: "empty FQN", def: gddl.TableDef{FQN: " ", Columns: []gddl.ColumnDef{{Name: "id", SQLType: "TEXT"}}}},
		{name: "no columns", def: gddl.TableDef{FQN: "documents"}},
		{name: "column missing type", def: gddl.TableDef{FQN: "documents", Columns: []gddl.ColumnDef{{Name: "id"}}}},
		{
			name: "incomplete foreign key",
			def: gddl.TableDef{
				FQN:         "categories",
				Columns:     []gddl.ColumnDef{{Name: "arxiv_id", SQLType: "TEXT"}},
				ForeignKeys: []gddl.ForeignKeyDef{{Column: "arxiv_id"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := BuildCreateTableSQL(tt.def); err == nil {
				t.Fatalf("BuildCreateTableSQL(%+v) error = nil, want non-nil", tt.def)
			}
		})
	}
}

// TestFromSchemaUsesKeyTypesForKeyColumns verifies that primary key and
// foreign key columns become VARCHAR(255) while plain text stays TEXT.
func TestFromSchemaUsesKeyTypesForKeyColumns(t *testing.T) {
	t.Parallel()

	got := FromSchema(schema.Documents())
	byName := map[string]string{}
	for _, c := range got.Columns {
		byName[c.Name] = c.SQLType
	}

	if byName["id"] != "VARCHAR(255)" {
		t.Fatalf("documents.id SQLType = %q, want VARCHAR(255)", byName["id"])
	}
	if byName["abstract"] != "TEXT" {
		t.Fatalf("documents.abstract SQLType = %q, want TEXT", byName["abstract"])
	}
	if byName["update_date"] != "DATE" {
		t.Fatalf("documents.update_date SQLType = %q, want DATE", byName["update_date"])
	}

	cats := FromSchema(schema.Categories())
	for _, c := range cats.Columns {
		if c.Name == "arxiv_id" && c.SQLType != "VARCHAR(255)" {
			t.Fatalf("categories.arxiv_id SQLType = %q, want VARCHAR(255)", c.SQLType)
		}
	}
}

// fakeRepository is a test double for storage.Repository that records Exec
// calls.
type fakeRepository struct {
	storage.Repository
	allSQL []string
}

func (f *fakeRepository) Exec(ctx context.Context, sql string) error {
	f.allSQL = append(f.allSQL, sql)
	return nil
}

// TestEnsureTablesOrdersParentFirst verifies documents DDL is emitted before
// any child-table DDL.
func TestEnsureTablesOrdersParentFirst(t *testing.T) {
	t.Parallel()

	var fake fakeRepository
	if err := EnsureTables(context.Background(), &fake, schema.Tables()); err != nil {
		t.Fatalf("EnsureTables() error = %v", err)
	}
	if len(fake.allSQL) != len(schema.Tables()) {
		t.Fatalf("Exec calls = %d, want %d", len(fake.allSQL), len(schema.Tables()))
	}
	if !strings.Contains(fake.allSQL[0], "`documents`") {
		t.Fatalf("first DDL statement is not documents:\n%s", fake.allSQL[0])
	}
}
