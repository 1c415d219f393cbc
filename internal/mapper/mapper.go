// Package mapper converts parsed arXiv metadata records into destination
// row sets.
//
// Mapping is pure: no I/O, no shared state. The only error is a missing,
// empty, or non-string identifier (MalformedRecordError); every other
// irregularity degrades gracefully. Absent or null optional fields become
// SQL NULL, and malformed child entries (a non-object version, a non-list
// author triple) are dropped without failing the record.
package mapper

import (
	"strings"

	"arxload/internal/errs"
	"arxload/internal/records"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// documentSourceKeys maps destination column names to their JSON source keys
// where they differ: the dump uses hyphenated keys, the schema snake_case.
var documentSourceKeys = map[string]string{
	"journal_ref": "journal-ref",
	"report_no":   "report-no",
}

// RecordID extracts the required identifier from rec. A missing, empty, or
// non-string id is a MalformedRecordError (Line stays zero; the caller knows
// the position if anyone does).
func RecordID(rec records.Record) (string, error) {
	v, ok := rec["id"]
	if !ok {
		return "", &errs.MalformedRecordError{Reason: `missing "id"`}
	}
	s, ok := v.(string)
	if !ok {
		return "", &errs.MalformedRecordError{Reason: `field "id" is not a string`}
	}
	if s == "" {
		return "", &errs.MalformedRecordError{Reason: `field "id" is empty`}
	}
	return s, nil
}

// Map converts one record into its destination row set: exactly one
// documents row plus zero or more categories, versions, and authors child
// rows, in parent-first table order. Child groups are present even when
// empty so callers can merge batches positionally.
func Map(rec records.Record) (storage.Batch, error) {
	id, err := RecordID(rec)
	if err != nil {
		return nil, err
	}

	return storage.Batch{
		documentRows(rec, id),
		categoryRows(rec, id),
		versionRows(rec, id),
		authorRows(rec, id),
	}, nil
}

func documentRows(rec records.Record, id string) storage.TableRows {
	def := schema.Documents()
	cols := def.ColumnNames()

	row := make([]any, len(cols))
	for i, col := range cols {
		if col == "id" {
			row[i] = id
			continue
		}
		src := col
		if k, ok := documentSourceKeys[col]; ok {
			src = k
		}
		row[i] = rec.Text(src)
	}

	return storage.TableRows{Table: def.Name, Columns: cols, Rows: [][]any{row}}
}

// categoryRows tokenizes the whitespace-separated categories field. A
// missing or non-string field yields no rows.
func categoryRows(rec records.Record, id string) storage.TableRows {
	def := schema.Categories()
	out := storage.TableRows{Table: def.Name, Columns: def.ColumnNames()}

	cats, ok := rec.String("categories")
	if !ok {
		return out
	}
	for _, category := range strings.Fields(cats) {
		out.Rows = append(out.Rows, []any{id, category})
	}
	return out
}

// versionRows fans out the versions list, one row per object element.
func versionRows(rec records.Record, id string) storage.TableRows {
	def := schema.Versions()
	out := storage.TableRows{Table: def.Name, Columns: def.ColumnNames()}

	for _, elem := range rec.List("versions") {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		v := records.Record(obj)
		out.Rows = append(out.Rows, []any{id, v.Text("version"), v.Text("created")})
	}
	return out
}

// authorRows fans out the authors_parsed list of [last, first, suffix]
// triples. Position is the 0-based list index, kept even when earlier
// elements are dropped as malformed; short triples leave the tail NULL.
func authorRows(rec records.Record, id string) storage.TableRows {
	def := schema.Authors()
	out := storage.TableRows{Table: def.Name, Columns: def.ColumnNames()}

	for i, elem := range rec.List("authors_parsed") {
		parts, ok := elem.([]any)
		if !ok {
			continue
		}
		row := []any{id, i, nil, nil, nil}
		for j := 0; j < len(parts) && j < 3; j++ {
			row[2+j] = records.Scalar(parts[j])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
