package schema

// Destination table names. Creation and insert order follows Tables():
// documents first so child-table foreign keys resolve.
const (
	TableDocuments  = "documents"
	TableCategories = "categories"
	TableVersions   = "versions"
	TableAuthors    = "authors"
)

// Documents is the primary table: one row per distinct article identifier.
// Hyphenated source keys (journal-ref, report-no) become snake_case columns.
func Documents() TableDef {
	return TableDef{
		Name: TableDocuments,
		Columns: []ColumnDef{
			{Name: "id", Type: "text", PrimaryKey: true},
			{Name: "authors", Type: "text", Nullable: true},
			{Name: "submitter", Type: "text", Nullable: true},
			{Name: "title", Type: "text", Nullable: true},
			{Name: "comments", Type: "text", Nullable: true},
			{Name: "journal_ref", Type: "text", Nullable: true},
			{Name: "doi", Type: "text", Nullable: true},
			{Name: "report_no", Type: "text", Nullable: true},
			{Name: "license", Type: "text", Nullable: true},
			{Name: "abstract", Type: "text", Nullable: true},
			{Name: "update_date", Type: "date", Nullable: true},
		},
	}
}

// Categories holds one row per whitespace-separated token of the record's
// "categories" field.
func Categories() TableDef {
	return TableDef{
		Name: TableCategories,
		Columns: []ColumnDef{
			{Name: "arxiv_id", Type: "text"},
			{Name: "category", Type: "text"},
		},
		ForeignKeys: []ForeignKey{
			{Column: "arxiv_id", RefTable: TableDocuments, RefColumn: "id"},
		},
	}
}

// Versions holds one row per element of the record's "versions" list.
func Versions() TableDef {
	return TableDef{
		Name: TableVersions,
		Columns: []ColumnDef{
			{Name: "arxiv_id", Type: "text"},
			{Name: "version", Type: "text", Nullable: true},
			{Name: "created", Type: "text", Nullable: true},
		},
		ForeignKeys: []ForeignKey{
			{Column: "arxiv_id", RefTable: TableDocuments, RefColumn: "id"},
		},
	}
}

// Authors holds one row per element of the record's "authors_parsed" list;
// position preserves the original author order.
func Authors() TableDef {
	return TableDef{
		Name: TableAuthors,
		Columns: []ColumnDef{
			{Name: "arxiv_id", Type: "text"},
			{Name: "position", Type: "int"},
			{Name: "last_name", Type: "text", Nullable: true},
			{Name: "first_name", Type: "text", Nullable: true},
			{Name: "suffix", Type: "text", Nullable: true},
		},
		ForeignKeys: []ForeignKey{
			{Column: "arxiv_id", RefTable: TableDocuments, RefColumn: "id"},
		},
	}
}

// Tables returns all destination tables in creation and insert order.
func Tables() []TableDef {
	return []TableDef{Documents(), Categories(), Versions(), Authors()}
}
