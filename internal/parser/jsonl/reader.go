// Package jsonl reads JSON Lines input as a lazy sequence of record chunks.
//
// The reader is forward-only and non-restartable: each call to Next consumes
// input and returns the next chunk in file order. Lines have no maximum
// length (a carry buffer accumulates bufio.ErrBufferFull fragments), blank
// lines are skipped without counting as records, and every line is decoded
// with a UseNumber decoder so numeric fields keep their literal form.
package jsonl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"arxload/internal/errs"
	"arxload/internal/records"
)

// readerBufSize is the bufio buffer; lines longer than this spill into the
// carry buffer rather than failing.
const readerBufSize = 1 << 20

// Chunk is one reader step: up to ChunkSize records in file order.
type Chunk struct {
	// Number is the 1-based chunk sequence number.
	Number int

	// Records holds the decoded objects of this chunk, in input order.
	Records []records.Record

	// Failed counts malformed lines dropped inside this chunk. Always zero
	// under the abort policy.
	Failed int
}

// Config configures a Reader.
type Config struct {
	// ChunkSize is the maximum number of records per chunk. Must be at
	// least 1.
	ChunkSize int

	// SkipMalformed switches the malformed-line policy from abort (the
	// default: the first unparsable line ends the run) to skip: the line is
	// counted as failed and reading continues.
	SkipMalformed bool

	// OnParseErr, when set, is called once per skipped line with its
	// 1-based line number and the decode error. Only used with
	// SkipMalformed.
	OnParseErr func(line int, err error)
}

// Reader splits a JSON Lines stream into chunks.
type Reader struct {
	br    *bufio.Reader
	cfg   Config
	line  int   // 1-based number of the most recently read line
	blank int   // blank lines seen so far
	num   int   // chunks handed out so far
	err   error // sticky; Next keeps returning it
	done  bool
}

// NewReader returns a Reader over r. The error is an InvalidArgumentError
// when cfg.ChunkSize is below 1.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	if cfg.ChunkSize < 1 {
		return nil, &errs.InvalidArgumentError{
			Name:   "chunksize",
			Reason: fmt.Sprintf("must be at least 1, got %d", cfg.ChunkSize),
		}
	}
	return &Reader{br: bufio.NewReaderSize(r, readerBufSize), cfg: cfg}, nil
}

// Lines returns the number of physical lines read so far, blank lines
// included.
func (r *Reader) Lines() int { return r.line }

// Blanks returns the number of blank lines read so far. Every non-blank line
// becomes exactly one record or one failed count, so Lines()-Blanks() is the
// number of records the reader has accounted for.
func (r *Reader) Blanks() int { return r.blank }

// Next returns the next chunk, or io.EOF once the input is exhausted. Under
// the abort policy an unparsable line yields a MalformedRecordError carrying
// its 1-based line number; after any non-EOF error the reader is poisoned
// and keeps returning the same error.
func (r *Reader) Next() (Chunk, error) {
	if r.err != nil {
		return Chunk{}, r.err
	}
	if r.done {
		return Chunk{}, io.EOF
	}

	chunk := Chunk{Number: r.num + 1}
	for len(chunk.Records) < r.cfg.ChunkSize {
		line, err := r.readLine()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			r.err = fmt.Errorf("read line %d: %w", r.line+1, err)
			return Chunk{}, r.err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			// Blank line: counted by Lines, never a record.
			r.blank++
			continue
		}

		rec, derr := decodeLine(line)
		if derr != nil {
			merr := &errs.MalformedRecordError{Line: r.line, Err: derr}
			if !r.cfg.SkipMalformed {
				r.err = merr
				return Chunk{}, r.err
			}
			chunk.Failed++
			if r.cfg.OnParseErr != nil {
				r.cfg.OnParseErr(r.line, merr)
			}
			continue
		}
		chunk.Records = append(chunk.Records, rec)
	}

	if len(chunk.Records) == 0 && chunk.Failed == 0 {
		return Chunk{}, io.EOF
	}
	r.num++
	return chunk, nil
}

// readLine returns the next physical line without its terminator, or io.EOF
// when no lines remain. A final unterminated line is returned before EOF.
// The returned slice may alias the bufio buffer and is only valid until the
// next call.
func (r *Reader) readLine() ([]byte, error) {
	var carry []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			// Line outgrew the buffer; accumulate and keep reading.
			carry = append(carry, chunk...)
			continue
		}
		if err == io.EOF {
			if len(chunk) == 0 && len(carry) == 0 {
				return nil, io.EOF
			}
			r.line++
			return dropCR(append(carry, chunk...)), nil
		}
		if err != nil {
			return nil, err
		}
		r.line++
		line := chunk[:len(chunk)-1]
		if len(carry) > 0 {
			line = append(carry, line...)
		}
		return dropCR(line), nil
	}
}

// dropCR strips a trailing carriage return so CRLF input parses cleanly.
func dropCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// decodeLine decodes one JSON Lines entry into a Record. The line must hold
// exactly one JSON object; arrays, scalars, null, and trailing data are all
// malformed. The input slice is only read during the call.
func decodeLine(line []byte) (records.Record, error) {
	dec := gojson.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var rec records.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("JSON null is not an object")
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return rec, nil
}
