package httpds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"arxload/internal/errs"
)

// DefaultParts is the ranged-download parallelism when the caller does not
// choose one.
const DefaultParts = 4

// defaultMinPartSize is the smallest payload worth splitting into ranged
// parts.
const defaultMinPartSize = 8 << 20 // 8 MiB

// DownloadOptions tune DownloadFile.
type DownloadOptions struct {
	// Parts is the number of ranged connections. Zero means DefaultParts;
	// 1 forces a single stream even when the server supports ranges.
	Parts int

	// MinPartSize is the smallest payload split into ranged parts. Zero
	// means 8 MiB.
	MinPartSize int64
}

// DownloadResult describes a finished download.
type DownloadResult struct {
	Path   string
	Size   int64
	Ranged bool
	Parts  int
}

// byteRange is one slice of the payload, inclusive on both ends.
type byteRange struct {
	start, end int64
}

// DownloadFile fetches url into destPath, which must not exist yet. When
// the server supports byte ranges and the payload is big enough, the parts
// are fetched in parallel and written at their offsets; otherwise a single
// stream is copied. A failed download leaves no partial file behind.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, opt DownloadOptions) (DownloadResult, error) {
	if _, err := os.Stat(destPath); err == nil {
		return DownloadResult{}, &errs.AlreadyExistsError{Path: destPath}
	} else if !errors.Is(err, os.ErrNotExist) {
		return DownloadResult{}, fmt.Errorf("stat %s: %w", destPath, err)
	}

	parts := opt.Parts
	if parts <= 0 {
		parts = DefaultParts
	}
	minPart := opt.MinPartSize
	if minPart <= 0 {
		minPart = defaultMinPartSize
	}

	info, err := c.Peek(ctx, url)
	if err != nil {
		return DownloadResult{}, err
	}
	ranged := parts > 1 && info.AcceptRanges && info.Size >= minPart

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return DownloadResult{}, &errs.AlreadyExistsError{Path: destPath}
		}
		return DownloadResult{}, fmt.Errorf("create %s: %w", destPath, err)
	}

	res := DownloadResult{Path: destPath, Parts: 1}
	if ranged {
		res.Ranged = true
		res.Parts = parts
		res.Size = info.Size
		err = c.downloadRanged(ctx, url, f, info.Size, parts)
	} else {
		res.Size, err = c.downloadStream(ctx, url, f)
	}

	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", destPath, cerr)
	}
	if err != nil {
		_ = os.Remove(destPath)
		return DownloadResult{}, err
	}
	return res, nil
}

// downloadStream copies the whole payload over one connection.
func (c *Client) downloadStream(ctx context.Context, url string, f *os.File) (int64, error) {
	resp, err := c.Get(ctx, url, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("httpds: download %s: status %d", url, resp.StatusCode)
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("httpds: download %s: %w", url, err)
	}
	return n, nil
}

// downloadRanged fetches the payload as parts ranged [start,end] and
// writes each at its own offset. os.File WriteAt is safe for concurrent
// use, so the parts share the file handle.
func (c *Client) downloadRanged(ctx context.Context, url string, f *os.File, size int64, parts int) error {
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, rg := range splitRanges(size, parts) {
		g.Go(func() error {
			h := make(http.Header)
			h.Set("Range", fmt.Sprintf("bytes=%d-%d", rg.start, rg.end))

			resp, err := c.Do(ctx, http.MethodGet, url, nil, h)
			if err != nil {
				return fmt.Errorf("httpds: part %d: %w", i, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusPartialContent {
				return fmt.Errorf("httpds: part %d: server ignored range request (status %d)", i, resp.StatusCode)
			}

			want := rg.end - rg.start + 1
			n, err := io.Copy(io.NewOffsetWriter(f, rg.start), io.LimitReader(resp.Body, want))
			if err != nil {
				return fmt.Errorf("httpds: part %d: %w", i, err)
			}
			if n != want {
				return fmt.Errorf("httpds: part %d: short body: got %d bytes, want %d", i, n, want)
			}
			return nil
		})
	}
	return g.Wait()
}

// splitRanges divides size bytes into n near-equal inclusive ranges. The
// part count is clamped so every range holds at least one byte.
func splitRanges(size int64, n int) []byteRange {
	if n < 1 {
		n = 1
	}
	if int64(n) > size {
		n = int(size)
	}
	part := size / int64(n)
	ranges := make([]byteRange, 0, n)
	var start int64
	for i := 0; i < n; i++ {
		end := start + part - 1
		if i == n-1 {
			end = size - 1
		}
		ranges = append(ranges, byteRange{start: start, end: end})
		start = end + 1
	}
	return ranges
}
