package json

import (
	"context"
	stdjson "encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gzip "github.com/klauspost/pgzip"

	"arxload/internal/errs"
)

// decodeLines parses the normalized output back into maps for semantic
// comparison; exact byte output depends on map key ordering.
func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var recs []map[string]any
	for _, ln := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if ln == "" {
			continue
		}
		var m map[string]any
		if err := stdjson.Unmarshal([]byte(ln), &m); err != nil {
			t.Fatalf("output line %q is not valid JSON: %v", ln, err)
		}
		recs = append(recs, m)
	}
	return recs
}

// TestNormalizeShapes drives one input per accepted document shape and
// checks the emitted record count and identifiers.
func TestNormalizeShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantIDs   []string
		wantField string
	}{
		{
			name:    "ndjson passthrough",
			input:   `{"id":"a"}` + "\n" + `{"id":"b"}` + "\n",
			wantIDs: []string{"a", "b"},
		},
		{
			name: "pretty printed array",
			input: `[
				{"id": "a", "title": "A"},
				{"id": "b", "title": "B"},
				{"id": "c", "title": "C"}
			]`,
			wantIDs: []string{"a", "b", "c"},
		},
		{
			name:      "envelope object",
			input:     `{"meta":{"count":2},"records":[{"id":"a"},{"id":"b"}]}`,
			wantIDs:   []string{"a", "b"},
			wantField: "records",
		},
		{
			name:    "single object",
			input:   `{"id": "a", "title": "Alone"}`,
			wantIDs: []string{"a"},
		},
		{
			name:    "array with null elements",
			input:   `[{"id":"a"}, null, {"id":"b"}]`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "array with ndjson tail",
			input:   `[{"id":"a"}]` + "\n" + `{"id":"b"}` + "\n" + `{"id":"c"}`,
			wantIDs: []string{"a", "b", "c"},
		},
		{
			name:    "empty input",
			input:   "",
			wantIDs: nil,
		},
		{
			name:    "whitespace only",
			input:   "  \n\t\n",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out strings.Builder
			stats, err := Normalize(context.Background(), strings.NewReader(tt.input), &out, Options{})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if stats.Records != int64(len(tt.wantIDs)) {
				t.Fatalf("stats.Records = %d, want %d", stats.Records, len(tt.wantIDs))
			}
			if stats.Field != tt.wantField {
				t.Fatalf("stats.Field = %q, want %q", stats.Field, tt.wantField)
			}

			recs := decodeLines(t, out.String())
			if len(recs) != len(tt.wantIDs) {
				t.Fatalf("output records = %d, want %d", len(recs), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got := recs[i]["id"]; got != want {
					t.Fatalf("record %d id = %v, want %q", i, got, want)
				}
			}
		})
	}
}

// TestNormalizeKeepsLargeIntegers checks that numbers round-trip verbatim
// instead of through float64.
func TestNormalizeKeepsLargeIntegers(t *testing.T) {
	t.Parallel()

	input := `{"id":"a","big":9007199254740993}`
	var out strings.Builder
	if _, err := Normalize(context.Background(), strings.NewReader(input), &out, Options{}); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !strings.Contains(out.String(), "9007199254740993") {
		t.Fatalf("output = %q, want the integer preserved verbatim", out.String())
	}
}

// TestNormalizeStripsBOM accepts a UTF-8 BOM before the root value.
func TestNormalizeStripsBOM(t *testing.T) {
	t.Parallel()

	input := "\xEF\xBB\xBF" + `{"id":"a"}` + "\n" + `{"id":"b"}`
	var out strings.Builder
	stats, err := Normalize(context.Background(), strings.NewReader(input), &out, Options{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if stats.Records != 2 {
		t.Fatalf("stats.Records = %d, want 2", stats.Records)
	}
}

// TestNormalizeLatin1 decodes ISO 8859-1 input before parsing.
func TestNormalizeLatin1(t *testing.T) {
	t.Parallel()

	// {"n":"é"} with é as the single latin1 byte 0xE9.
	input := []byte{'{', '"', 'n', '"', ':', '"', 0xE9, '"', '}'}
	var out strings.Builder
	stats, err := Normalize(context.Background(), strings.NewReader(string(input)), &out, Options{Encoding: "latin1"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if stats.Records != 1 {
		t.Fatalf("stats.Records = %d, want 1", stats.Records)
	}
	recs := decodeLines(t, out.String())
	if got := recs[0]["n"]; got != "é" {
		t.Fatalf("value = %q, want %q", got, "é")
	}
}

// TestNormalizeUnsupportedEncoding rejects unknown charset names.
func TestNormalizeUnsupportedEncoding(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	_, err := Normalize(context.Background(), strings.NewReader(`{}`), &out, Options{Encoding: "koi8-r"})
	if !errs.IsInvalidArgument(err) {
		t.Fatalf("Normalize() error = %v, want InvalidArgumentError", err)
	}
}

// TestNormalizeRejectsScalarRoot refuses documents whose root is neither
// an object nor an array.
func TestNormalizeRejectsScalarRoot(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	_, err := Normalize(context.Background(), strings.NewReader(`42`), &out, Options{})
	if err == nil || !strings.Contains(err.Error(), "want an object or array") {
		t.Fatalf("Normalize() error = %v, want root-shape error", err)
	}
}

// TestNormalizeRejectsScalarArrayElement refuses arrays of non-objects.
func TestNormalizeRejectsScalarArrayElement(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	_, err := Normalize(context.Background(), strings.NewReader(`[1,2,3]`), &out, Options{})
	if err == nil || !strings.Contains(err.Error(), "array element") {
		t.Fatalf("Normalize() error = %v, want element-shape error", err)
	}
}

// TestNormalizeCanceledContext stops before emitting anything.
func TestNormalizeCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	_, err := Normalize(ctx, strings.NewReader(`{"id":"a"}`), &out, Options{})
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Fatalf("Normalize() error = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q, want empty", out.String())
	}
}

// TestFindRecords exercises the envelope-field detection rules.
func TestFindRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		root     map[string]any
		wantKey  string
		wantLen  int
		wantNone bool
	}{
		{
			name:    "array of objects",
			root:    map[string]any{"items": []any{map[string]any{"id": "a"}}},
			wantKey: "items",
			wantLen: 1,
		},
		{
			name:    "nulls dropped",
			root:    map[string]any{"items": []any{nil, map[string]any{"id": "a"}, nil}},
			wantKey: "items",
			wantLen: 1,
		},
		{
			name:     "scalar array is not records",
			root:     map[string]any{"tags": []any{"a", "b"}},
			wantNone: true,
		},
		{
			name:     "empty array is not records",
			root:     map[string]any{"items": []any{}},
			wantNone: true,
		},
		{
			name:     "no array fields",
			root:     map[string]any{"id": "a", "meta": map[string]any{}},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key, objs := findRecords(tt.root)
			if tt.wantNone {
				if objs != nil {
					t.Fatalf("findRecords() = %q, %v, want none", key, objs)
				}
				return
			}
			if key != tt.wantKey || len(objs) != tt.wantLen {
				t.Fatalf("findRecords() = %q, %d objects, want %q, %d", key, len(objs), tt.wantKey, tt.wantLen)
			}
		})
	}
}

// TestNormalizeFile converts a file on disk and refuses to overwrite.
func TestNormalizeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "snapshot.json")
	out := filepath.Join(dir, "snapshot.jsonl")
	if err := os.WriteFile(in, []byte(`[{"id":"a"},{"id":"b"}]`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	stats, err := NormalizeFile(context.Background(), in, out, Options{})
	if err != nil {
		t.Fatalf("NormalizeFile() error = %v", err)
	}
	if stats.Records != 2 {
		t.Fatalf("stats.Records = %d, want 2", stats.Records)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := len(decodeLines(t, string(data))); got != 2 {
		t.Fatalf("output records = %d, want 2", got)
	}

	// Second run against the same output must refuse without touching it.
	_, err = NormalizeFile(context.Background(), in, out, Options{})
	if !errs.IsAlreadyExists(err) {
		t.Fatalf("NormalizeFile() error = %v, want AlreadyExistsError", err)
	}
	after, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(after) != string(data) {
		t.Fatalf("output changed by a refused run")
	}
}

// TestNormalizeFileMissingInput maps a missing path to NotFoundError.
func TestNormalizeFileMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NormalizeFile(context.Background(), filepath.Join(dir, "nope.json"), filepath.Join(dir, "out.jsonl"), Options{})
	if !errs.IsNotFound(err) {
		t.Fatalf("NormalizeFile() error = %v, want NotFoundError", err)
	}
}

// TestNormalizeFileGzipInput decompresses .gz inputs transparently.
func TestNormalizeFileGzipInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "snapshot.json.gz")
	out := filepath.Join(dir, "snapshot.jsonl")

	f, err := os.Create(in)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(`[{"id":"a"},{"id":"b"},{"id":"c"}]`)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	stats, err := NormalizeFile(context.Background(), in, out, Options{})
	if err != nil {
		t.Fatalf("NormalizeFile() error = %v", err)
	}
	if stats.Records != 3 {
		t.Fatalf("stats.Records = %d, want 3", stats.Records)
	}
}

// TestNormalizeFileRemovesPartialOutput cleans up when the input breaks
// mid-document.
func TestNormalizeFileRemovesPartialOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "broken.json")
	out := filepath.Join(dir, "out.jsonl")
	if err := os.WriteFile(in, []byte(`[{"id":"a"}, {"id":`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if _, err := NormalizeFile(context.Background(), in, out, Options{}); err == nil {
		t.Fatal("NormalizeFile() error = nil, want decode error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("stat output after failure = %v, want not exist", err)
	}
}
