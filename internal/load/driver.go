package load

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"arxload/internal/config"
	"arxload/internal/datasource/file"
	"arxload/internal/dedup"
	"arxload/internal/errs"
	"arxload/internal/metrics"
	"arxload/internal/parser/jsonl"
	"arxload/internal/scan"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// Summary is the final accounting of a run.
type Summary struct {
	RunID     string
	Lines     int   // physical input lines read, blank lines included
	Processed int   // records committed to the destination
	Skipped   int   // duplicate identifiers dropped
	Failed    int   // malformed lines and records dropped under the skip policy
	Inserted  int64 // rows written across all destination tables
	Chunks    int   // transactions committed
	Distinct  int   // distinct identifiers committed; always equals Processed
	Elapsed   time.Duration
}

// Seams for tests: swap the repository factory and the input opener without
// touching a real database or requiring specific files on disk.
var (
	newRepositoryFn = storage.New
	openSourceFn    = file.Open
)

// Run executes one complete load: validate the configuration, refuse a
// pre-existing destination, create the schema, then read, map, deduplicate,
// and commit chunks sequentially until the input is exhausted.
//
// Everything is ordered so that failures before the first commit leave no
// side effects at all, and later failures leave exactly the chunks committed
// so far. The returned Summary carries whatever was committed before the
// error; it is complete only when the error is nil.
func Run(ctx context.Context, cfg config.Config, runID string) (Summary, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	start := time.Now()
	sum := Summary{RunID: runID}
	log := slog.With("run_id", runID)

	// Static validation first; a bad invocation touches nothing.
	stepStart := time.Now()
	verr := firstConfigError(log, cfg)
	metrics.RecordStep(runID, "validate", verr, time.Since(stepStart))
	if verr != nil {
		return sum, verr
	}

	dest, err := config.ParseOutput(cfg.Output)
	if err != nil {
		return sum, err
	}

	// The input must exist and be a regular file.
	info, err := os.Stat(cfg.Input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sum, &errs.NotFoundError{Path: cfg.Input, Err: err}
		}
		return sum, fmt.Errorf("stat input %s: %w", cfg.Input, err)
	}
	if info.IsDir() {
		return sum, &errs.InvalidArgumentError{
			Name:   "input",
			Reason: fmt.Sprintf("%s is a directory, want a file", cfg.Input),
		}
	}

	// The destination must not exist yet. For file-backed destinations the
	// check runs before the repository opens, because opening would create
	// the file.
	if dest.Path != "" {
		if _, err := os.Stat(dest.Path); err == nil {
			return sum, &errs.AlreadyExistsError{Path: dest.Path}
		} else if !errors.Is(err, os.ErrNotExist) {
			return sum, fmt.Errorf("stat output %s: %w", dest.Path, err)
		}
	}

	repo, err := newRepositoryFn(ctx, storage.Config{Kind: dest.Kind, DSN: dest.DSN})
	if err != nil {
		return sum, fmt.Errorf("open %s destination: %w", dest.Kind, err)
	}
	defer repo.Close()

	// Server-backed destinations are probed for the primary table instead.
	if dest.Path == "" {
		exists, err := repo.TableExists(ctx, schema.TableDocuments)
		if err != nil {
			return sum, fmt.Errorf("probe destination: %w", err)
		}
		if exists {
			return sum, &errs.AlreadyExistsError{Path: cfg.Output}
		}
	}

	log.Info("run starting",
		"input", cfg.Input,
		"output_kind", dest.Kind,
		"chunk_size", cfg.ChunkSize,
		"on_malformed", cfg.OnMalformed,
	)

	stepStart = time.Now()
	err = storage.EnsureSchema(ctx, dest.Kind, repo, schema.Tables())
	metrics.RecordStep(runID, "create_schema", err, time.Since(stepStart))
	if err != nil {
		return sum, fmt.Errorf("create schema: %w", err)
	}
	log.Info("schema created", "tables", len(schema.Tables()))

	totalLines := 0
	if cfg.Precount {
		stepStart = time.Now()
		totalLines, err = countInputLines(ctx, cfg.Input)
		metrics.RecordStep(runID, "count_lines", err, time.Since(stepStart))
		if err != nil {
			return sum, fmt.Errorf("count input lines: %w", err)
		}
		log.Info("input precounted", "lines", totalLines)
	}

	src, err := openSourceFn(ctx, cfg.Input)
	if err != nil {
		return sum, fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	skip := cfg.OnMalformed == config.MalformedSkip
	reader, err := jsonl.NewReader(src, jsonl.Config{
		ChunkSize:     cfg.ChunkSize,
		SkipMalformed: skip,
		OnParseErr: func(line int, err error) {
			log.Warn("skipping malformed line", "line", line, "err", err)
		},
	})
	if err != nil {
		return sum, err
	}

	reg := dedup.NewRegistry()
	for {
		if cerr := ctx.Err(); cerr != nil {
			finish(&sum, reader.Lines(), reg.Len(), start)
			return sum, fmt.Errorf("run canceled after %d committed chunks: %w", sum.Chunks, cerr)
		}

		chunk, rerr := reader.Next()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			finish(&sum, reader.Lines(), reg.Len(), start)
			log.Error("run aborted", "err", rerr, "chunks_committed", sum.Chunks)
			return sum, rerr
		}

		stepStart = time.Now()
		res, werr := WriteChunk(ctx, repo, reg, chunk, skip)
		metrics.RecordStep(runID, "load_chunk", werr, time.Since(stepStart))
		if werr != nil {
			finish(&sum, reader.Lines(), reg.Len(), start)
			log.Error("run aborted", "err", werr, "chunks_committed", sum.Chunks)
			return sum, werr
		}

		sum.Processed += res.Processed
		sum.Skipped += res.Skipped
		sum.Failed += res.Failed
		sum.Inserted += res.Inserted
		if res.Committed {
			sum.Chunks++
			metrics.RecordChunks(runID, 1)
		}
		metrics.RecordRows(runID, "processed", int64(res.Processed))
		metrics.RecordRows(runID, "skipped", int64(res.Skipped))
		metrics.RecordRows(runID, "failed", int64(res.Failed))
		metrics.RecordRows(runID, "inserted", res.Inserted)

		logChunk(log, chunk.Number, reader.Lines(), totalLines, res, time.Since(stepStart))
	}

	finish(&sum, reader.Lines(), reg.Len(), start)

	// Every non-blank line must end up processed, skipped, or failed.
	if records := sum.Lines - reader.Blanks(); sum.Processed+sum.Skipped+sum.Failed != records {
		log.Warn("record accounting mismatch",
			"records", records,
			"processed", sum.Processed,
			"skipped", sum.Skipped,
			"failed", sum.Failed,
		)
	}

	log.Info("run complete",
		"lines", sum.Lines,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"inserted_rows", sum.Inserted,
		"chunks", sum.Chunks,
		"elapsed", sum.Elapsed.Round(time.Millisecond),
	)
	return sum, nil
}

// firstConfigError logs validation warnings and returns the first
// error-severity issue as an InvalidArgumentError, or nil.
func firstConfigError(log *slog.Logger, cfg config.Config) error {
	issues := config.ValidateConfig(cfg)
	for _, is := range issues {
		if is.Severity == config.SeverityWarning {
			log.Warn("configuration warning", "path", is.Path, "msg", is.Message)
		}
	}
	for _, is := range issues {
		if is.Severity == config.SeverityError {
			return &errs.InvalidArgumentError{Name: is.Path, Reason: is.Message}
		}
	}
	return nil
}

// countInputLines opens the input a first time just to count lines for
// progress totals; compressed inputs are counted decompressed.
func countInputLines(ctx context.Context, path string) (int, error) {
	src, err := openSourceFn(ctx, path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return scan.CountLines(src)
}

func finish(sum *Summary, lines, distinct int, start time.Time) {
	sum.Lines = lines
	sum.Distinct = distinct
	sum.Elapsed = time.Since(start)
}

// logChunk emits the per-chunk progress line.
func logChunk(log *slog.Logger, number, lines, totalLines int, res ChunkResult, d time.Duration) {
	rps := 0
	if s := d.Seconds(); s > 0 {
		rps = int(float64(res.Processed) / s)
	}
	attrs := []any{
		"chunk", number,
		"records", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"rows", res.Inserted,
		"rps", rps,
	}
	if totalLines > 0 {
		attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", 100*float64(lines)/float64(totalLines)))
	}
	log.Info("chunk processed", attrs...)
}
