// Package probe samples the head of a JSON Lines dump and reports its shape:
// which keys occur, how often, with what inferred types, and how dense
// duplicate identifiers are.
//
// The report is advisory. It exists so an operator can sanity-check an
// unfamiliar dump (key coverage, duplicate density, malformed-line rate)
// before committing to a full load.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"

	"arxload/internal/datasource/file"
	"arxload/internal/errs"
	"arxload/internal/mapper"
	"arxload/internal/parser/jsonl"
	"arxload/internal/records"
	"arxload/internal/scan"
)

// DefaultSampleRecords is how many records Probe examines when the caller
// does not say otherwise.
const DefaultSampleRecords = 1000

// inferValueSampleCap bounds how many values per field feed type inference.
const inferValueSampleCap = 200

// Options control sampling and optional sample output.
type Options struct {
	// SampleRecords caps how many records are examined. Zero means
	// DefaultSampleRecords; negative means no cap (scan the whole file).
	SampleRecords int

	// SamplePath, when set, writes the sampled records back out as JSON
	// Lines (re-encoded, one object per line). The path must not exist yet.
	SamplePath string
}

// FieldStat describes one JSON key observed in the sample.
type FieldStat struct {
	Name    string `json:"name"`              // original JSON key
	Column  string `json:"column"`            // normalized destination-style name
	Count   int    `json:"count"`             // records containing the key
	Type    string `json:"type"`              // inferred type over the sample
	Example string `json:"example,omitempty"` // first scalar value seen
}

// Report is the result of sampling a JSON Lines dump.
type Report struct {
	Path         string      `json:"path"`
	Records      int         `json:"records"`       // sampled records
	Lines        int         `json:"lines"`         // physical lines read
	Malformed    int         `json:"malformed"`     // unparsable lines in the sample
	DistinctIDs  int         `json:"distinct_ids"`  // distinct identifiers in the sample
	DuplicateIDs int         `json:"duplicate_ids"` // sampled records repeating an identifier
	MissingIDs   int         `json:"missing_ids"`   // sampled records without a usable identifier
	Fields       []FieldStat `json:"fields"`        // sorted by name
}

// fieldAgg accumulates per-key observations while sampling.
type fieldAgg struct {
	count   int
	values  []any // capped; nulls excluded
	example string
}

// Probe samples up to opt.SampleRecords records from the dump at path.
// Compressed dumps are decompressed transparently; unparsable lines are
// counted, never fatal.
func Probe(ctx context.Context, path string, opt Options) (Report, error) {
	capRecords := opt.SampleRecords
	if capRecords == 0 {
		capRecords = DefaultSampleRecords
	}

	if opt.SamplePath != "" {
		if _, err := os.Stat(opt.SamplePath); err == nil {
			return Report{}, &errs.AlreadyExistsError{Path: opt.SamplePath}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Report{}, fmt.Errorf("stat sample path %s: %w", opt.SamplePath, err)
		}
	}

	src, err := file.Open(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Report{}, &errs.NotFoundError{Path: path, Err: err}
		}
		return Report{}, err
	}
	defer src.Close()

	chunkSize := 1000
	if capRecords > 0 && capRecords < chunkSize {
		chunkSize = capRecords
	}
	reader, err := jsonl.NewReader(src, jsonl.Config{
		ChunkSize:     chunkSize,
		SkipMalformed: true,
	})
	if err != nil {
		return Report{}, err
	}

	rep := Report{Path: path}
	aggs := map[string]*fieldAgg{}
	ids := scan.NewHashSet48()
	var sampled []records.Record

sampling:
	for {
		chunk, err := reader.Next()
		if err != nil {
			// The skip policy absorbs parse errors, so only EOF ends up here.
			break
		}
		rep.Malformed += chunk.Failed

		for _, rec := range chunk.Records {
			observe(rec, aggs)
			rep.Records++

			if id, err := mapper.RecordID(rec); err != nil {
				rep.MissingIDs++
			} else if !ids.AddString(id) {
				rep.DuplicateIDs++
			}
			if opt.SamplePath != "" {
				sampled = append(sampled, rec)
			}

			if capRecords > 0 && rep.Records >= capRecords {
				break sampling
			}
		}
	}

	rep.Lines = reader.Lines()
	rep.DistinctIDs = ids.Len()
	rep.Fields = buildFieldStats(aggs)

	if opt.SamplePath != "" {
		if err := writeSample(opt.SamplePath, sampled); err != nil {
			return Report{}, err
		}
	}
	return rep, nil
}

// observe folds one record into the per-key aggregates. JSON nulls count as
// key presence but do not feed inference.
func observe(rec records.Record, aggs map[string]*fieldAgg) {
	for k, v := range rec {
		a := aggs[k]
		if a == nil {
			a = &fieldAgg{}
			aggs[k] = a
		}
		a.count++
		if v == nil {
			continue
		}
		if len(a.values) < inferValueSampleCap {
			a.values = append(a.values, v)
		}
		if a.example == "" {
			if s := records.Scalar(v); s != nil {
				a.example = fmt.Sprint(s)
			}
		}
	}
}

// buildFieldStats renders the aggregates as a name-sorted stat list.
func buildFieldStats(aggs map[string]*fieldAgg) []FieldStat {
	names := make([]string, 0, len(aggs))
	for k := range aggs {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]FieldStat, 0, len(names))
	for _, name := range names {
		a := aggs[name]
		out = append(out, FieldStat{
			Name:    name,
			Column:  truncateFieldName(normalizeFieldName(name)),
			Count:   a.count,
			Type:    inferTypeForField(a.values),
			Example: a.example,
		})
	}
	return out
}

// writeSample re-encodes the sampled records as JSON Lines at path.
func writeSample(path string, recs []records.Record) error {
	var b strings.Builder
	for _, rec := range recs {
		line, err := gojson.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode sample record: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write sample %s: %w", path, err)
	}
	return nil
}

// Text renders the report for terminal display.
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", r.Path)
	fmt.Fprintf(&b, "records: %d  lines: %d  malformed: %d\n", r.Records, r.Lines, r.Malformed)
	fmt.Fprintf(&b, "distinct ids: %d  duplicates: %d  missing ids: %d\n\n",
		r.DistinctIDs, r.DuplicateIDs, r.MissingIDs)

	fmt.Fprintf(&b, "%-18s %-18s %8s  %-9s %s\n", "key", "column", "count", "type", "example")
	for _, f := range r.Fields {
		example := f.Example
		if len(example) > 48 {
			example = example[:45] + "..."
		}
		fmt.Fprintf(&b, "%-18s %-18s %8d  %-9s %s\n", f.Name, f.Column, f.Count, f.Type, example)
	}
	return b.String()
}
