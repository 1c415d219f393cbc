package json

import (
	"bufio"
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	gojson "github.com/goccy/go-json"

	"arxload/internal/datasource/file"
	"arxload/internal/errs"
)

// Normalize re-encodes the JSON document on r as JSON Lines on w, one
// compact object per line. Accepted shapes:
//
//   - top-level array of objects, streamed element by element
//   - envelope object carrying the records in one array-of-objects field
//   - single object
//   - trailing NDJSON-style objects after the root value
//
// Numbers are decoded with UseNumber and re-encoded verbatim, so large
// integers survive the round trip. An envelope is decoded whole; only the
// top-level array path streams.
func Normalize(ctx context.Context, r io.Reader, w io.Writer, opt Options) (Stats, error) {
	var stats Stats

	src, err := decodeReader(r, opt.Encoding)
	if err != nil {
		return stats, err
	}
	br := bufio.NewReaderSize(src, readBufSize)
	stripBOM(br)

	emit := func(obj map[string]any) error {
		// Cancellation is checked every few thousand records.
		if stats.Records%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line, err := gojson.Marshal(obj)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", stats.Records+1, err)
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("write record %d: %w", stats.Records+1, err)
		}
		stats.Records++
		return nil
	}

	first, err := firstNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, nil // empty input
		}
		return stats, fmt.Errorf("read input: %w", err)
	}

	dec := stdjson.NewDecoder(br)
	dec.UseNumber()

	switch first {
	case '[':
		if err := streamArray(dec, emit); err != nil {
			return stats, err
		}
	case '{':
		var root map[string]any
		if err := dec.Decode(&root); err != nil {
			return stats, fmt.Errorf("decode root object: %w", err)
		}
		if key, objs := findRecords(root); objs != nil {
			stats.Field = key
			for _, obj := range objs {
				if err := emit(obj); err != nil {
					return stats, err
				}
			}
		} else if err := emit(root); err != nil {
			return stats, err
		}
	default:
		return stats, fmt.Errorf("top-level JSON value starts with %q, want an object or array", first)
	}

	// NDJSON-style tail: further top-level objects follow one by one.
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("decode trailing value: %w", err)
		}
		if obj == nil {
			continue // bare null
		}
		if err := emit(obj); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// streamArray walks a top-level array with the token API so the document
// never sits in memory whole. Null elements are dropped; anything else
// that is not an object is an error.
func streamArray(dec *stdjson.Decoder, emit func(map[string]any) error) error {
	if _, err := dec.Token(); err != nil { // opening '['
		return fmt.Errorf("decode root array: %w", err)
	}
	for i := 0; dec.More(); i++ {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return fmt.Errorf("decode array element %d: %w", i, err)
		}
		if obj == nil {
			continue
		}
		if err := emit(obj); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return fmt.Errorf("decode root array: %w", err)
	}
	return nil
}

// findRecords searches a decoded envelope for a field holding a non-empty
// array of objects and returns its key and elements, scanning keys in
// sorted order so the pick is deterministic. Null elements are dropped.
// When no such field exists the envelope itself is the record and
// findRecords returns nil.
func findRecords(root map[string]any) (string, []map[string]any) {
	keys := make([]string, 0, len(root))
	for k := range root {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		rawSlice, ok := root[k].([]any)
		if !ok || len(rawSlice) == 0 {
			continue
		}
		objects := make([]map[string]any, 0, len(rawSlice))
		valid := true
		for _, elem := range rawSlice {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				valid = false
				break
			}
			objects = append(objects, m)
		}
		if valid && len(objects) > 0 {
			return k, objects
		}
	}
	return "", nil
}

// NormalizeFile normalizes the document at inPath into a newly created
// file at outPath. The output must not exist yet; compressed inputs are
// decompressed transparently. A failed run leaves no partial output
// behind.
func NormalizeFile(ctx context.Context, inPath, outPath string, opt Options) (Stats, error) {
	if _, err := os.Stat(outPath); err == nil {
		return Stats{}, &errs.AlreadyExistsError{Path: outPath}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Stats{}, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	src, err := file.Open(ctx, inPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Stats{}, &errs.NotFoundError{Path: inPath, Err: err}
		}
		return Stats{}, err
	}
	defer src.Close()

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Stats{}, &errs.AlreadyExistsError{Path: outPath}
		}
		return Stats{}, fmt.Errorf("create output %s: %w", outPath, err)
	}

	w := bufio.NewWriterSize(out, writeBufSize)
	stats, err := Normalize(ctx, src, w, opt)
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output %s: %w", outPath, cerr)
	}
	if err != nil {
		_ = os.Remove(outPath)
		return Stats{}, err
	}
	return stats, nil
}
