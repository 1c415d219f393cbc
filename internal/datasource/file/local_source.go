// Package file implements the local-filesystem data source for loader input.
//
// Input dumps arrive either plain or compressed; Open decompresses gzip and
// zstandard transparently based on the file extension, so the rest of the
// loader always sees a plain JSON Lines stream.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"golang.org/x/sys/unix"
)

// Local is a filesystem data source bound to a single path.
type Local struct{ path string }

// NewLocal binds a data source to one file path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the path this source reads.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for sequential reading. A context already
// canceled at call time returns the context error before any filesystem
// work. Paths ending in .gz come back decompressed through parallel gzip,
// .zst and .zstd through zstandard; Close releases the decompressor
// together with the file. Filesystem errors are wrapped with the path and
// stay transparent to errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	// A load reads the whole file front to back exactly once.
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)

	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".gz":
		g, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", l.path, err)
		}
		return &readCloserWrapper{g, f}, nil
	case ".zst", ".zstd":
		d, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd %s: %w", l.path, err)
		}
		return &readCloserWrapper{d.IOReadCloser(), f}, nil
	default:
		return f, nil
	}
}

// Open is a convenience for NewLocal(path).Open(ctx).
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return NewLocal(path).Open(ctx)
}

// readCloserWrapper pairs a (possibly decompressing) reader with the file
// beneath it so that Close releases both.
type readCloserWrapper struct {
	reader io.Reader
	file   io.Closer
}

func (w *readCloserWrapper) Read(p []byte) (int, error) { return w.reader.Read(p) }

func (w *readCloserWrapper) Close() error {
	var err error
	if c, ok := w.reader.(io.Closer); ok {
		err = c.Close()
	}
	if w.file != nil {
		if e := w.file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
