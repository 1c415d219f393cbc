// Package scan provides cheap single-pass passes over loader input: line
// counting for progress totals and compact distinct-value tracking.
package scan

import (
	"bytes"
	"io"

	"github.com/zeebo/xxh3"
)

// countBufSize is the read buffer for CountLines.
const countBufSize = 1 << 20

// We keep 48 bits (6 bytes) of xxhash for the distinct set.
const hashMask48 = 0xFFFFFFFFFFFF

// CountLines counts the physical lines of r: one per '\n', plus one for a
// final unterminated line. An empty stream has zero lines.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, countBufSize)
	n := 0
	last := byte('\n')
	for {
		m, err := r.Read(buf)
		if m > 0 {
			n += bytes.Count(buf[:m], []byte{'\n'})
			last = buf[m-1]
		}
		if err == io.EOF {
			if last != '\n' {
				n++
			}
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}

// hash48 returns the low 48 bits of the xxh3 hash of b.
func hash48(b []byte) uint64 { return xxh3.Hash(b) & hashMask48 }

// HashSet48 tracks distinct byte strings by the low 48 bits of their xxh3
// hash instead of storing the strings themselves. Collisions undercount,
// but at 48 bits that stays negligible for dump-sized inputs; use it for
// estimates and sanity checks, not for the load-time dedup registry.
type HashSet48 struct {
	seen map[uint64]struct{}
}

// NewHashSet48 returns an empty set.
func NewHashSet48() *HashSet48 {
	return &HashSet48{seen: make(map[uint64]struct{})}
}

// Add inserts b and reports whether it was new.
func (s *HashSet48) Add(b []byte) bool {
	h := hash48(b)
	if _, ok := s.seen[h]; ok {
		return false
	}
	s.seen[h] = struct{}{}
	return true
}

// AddString inserts s and reports whether it was new.
func (s *HashSet48) AddString(v string) bool { return s.Add([]byte(v)) }

// Len returns the number of distinct values added.
func (s *HashSet48) Len() int { return len(s.seen) }
