// Package json normalizes arbitrary JSON documents into JSON Lines.
//
// Dataset exports arrive in several shapes: a top-level array of objects,
// an envelope object carrying the records in one array field, a single
// object, or newline-delimited objects. Normalize accepts all of them and
// re-encodes every record compactly on its own line, which is the only
// shape the chunked loader consumes.
package json

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"arxload/internal/errs"
)

// readBufSize and writeBufSize are the bufio buffers around the input and
// output files.
const (
	readBufSize  = 1 << 20
	writeBufSize = 1 << 20
)

// Options control how the input is decoded before JSON parsing.
type Options struct {
	// Encoding names the source charset. Empty or "utf8" passes bytes
	// through; "latin1" (ISO 8859-1) and "windows-1252" route the input
	// through a charmap decoder first.
	Encoding string
}

// Stats summarizes one normalization run.
type Stats struct {
	// Records is the number of objects written out.
	Records int64
	// Field names the envelope field the records came from, when the
	// input was an envelope object rather than a bare array or stream.
	Field string
}

// decodeReader wraps r according to the named source encoding.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	switch strings.ToLower(name) {
	case "", "utf8", "utf-8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, &errs.InvalidArgumentError{
			Name:   "encoding",
			Reason: fmt.Sprintf("unsupported value %q", name),
		}
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM discards a leading UTF-8 byte-order mark.
func stripBOM(br *bufio.Reader) {
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
}

// firstNonSpace reports the first byte of the root JSON value without
// consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			_ = br.UnreadByte()
			return b, nil
		}
	}
}
