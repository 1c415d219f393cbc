package load

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gzip "github.com/klauspost/pgzip"

	"arxload/internal/config"
	"arxload/internal/errs"
	"arxload/internal/schema"
	"arxload/internal/storage"
	_ "arxload/internal/storage/all"
)

// line renders a minimal input record with the given identifier.
func line(id string) string {
	return fmt.Sprintf(`{"id":%q,"title":"Title %s"}`, id, id)
}

// writeInput writes lines to a fresh temp file and returns its path.
func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dump.jsonl")
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return p
}

// outPath returns a destination path that does not exist yet.
func outPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "out.db")
}

func runConfig(input, output string, chunkSize int) config.Config {
	cfg := config.Default()
	cfg.Input = input
	cfg.Output = output
	cfg.ChunkSize = chunkSize
	return cfg
}

// stubRepo routes the driver's repository factory to repo for the duration
// of the test and returns a counter of factory invocations. Tests that stub
// the factory must not run in parallel.
func stubRepo(t *testing.T, repo storage.Repository) *int {
	t.Helper()
	calls := 0
	orig := newRepositoryFn
	newRepositoryFn = func(_ context.Context, _ storage.Config) (storage.Repository, error) {
		calls++
		return repo, nil
	}
	t.Cleanup(func() { newRepositoryFn = orig })
	return &calls
}

// TestRunLoadsAllRecords walks the full happy path: schema creation, chunked
// commits, and the final summary.
func TestRunLoadsAllRecords(t *testing.T) {
	input := writeInput(t,
		`{"id":"a","title":"Alpha","categories":"hep-ph math.CO"}`,
		line("b"), line("c"), line("d"), line("e"),
	)
	repo := newFakeRepo()
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(input, outPath(t), 2), "run-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Processed != 5 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want Processed=5 Skipped=0 Failed=0", sum)
	}
	if sum.Chunks != 3 {
		t.Fatalf("summary.Chunks = %d, want 3 for 5 records at size 2", sum.Chunks)
	}
	if sum.Lines != 5 || sum.Distinct != 5 {
		t.Fatalf("summary = %+v, want Lines=5 Distinct=5", sum)
	}
	// 5 documents rows plus 2 category rows.
	if sum.Inserted != 7 {
		t.Fatalf("summary.Inserted = %d, want 7", sum.Inserted)
	}

	if got := repo.docIDs(); strings.Join(got, ",") != "a,b,c,d,e" {
		t.Fatalf("documents ids = %v, want [a b c d e]", got)
	}
	if len(repo.execSQL) == 0 {
		t.Fatalf("no DDL executed; schema was never created")
	}
	if sum.RunID != "run-1" {
		t.Fatalf("summary.RunID = %q, want run-1", sum.RunID)
	}
}

// TestRunPrimaryRowsMatchDistinctIDs loads an input with duplicates spread
// across chunk boundaries and verifies the destination holds exactly one
// documents row per distinct identifier, keeping the first occurrence.
func TestRunPrimaryRowsMatchDistinctIDs(t *testing.T) {
	input := writeInput(t,
		line("a"), line("b"), line("a"), line("c"),
		line("b"), line("d"), line("a"),
	)
	repo := newFakeRepo()
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(input, outPath(t), 3), "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := repo.docIDs(); strings.Join(got, ",") != "a,b,c,d" {
		t.Fatalf("documents ids = %v, want first occurrences [a b c d]", got)
	}
	if sum.Processed != 4 || sum.Skipped != 3 {
		t.Fatalf("summary = %+v, want Processed=4 Skipped=3", sum)
	}
	if sum.Distinct != len(repo.rows[schema.TableDocuments]) {
		t.Fatalf("Distinct = %d, documents rows = %d; must match",
			sum.Distinct, len(repo.rows[schema.TableDocuments]))
	}
	if sum.RunID == "" {
		t.Fatalf("summary.RunID empty, want generated identifier")
	}
}

// TestRunChunkSizeIndependence verifies that the destination contents and the
// record accounting do not depend on the chunk size.
func TestRunChunkSizeIndependence(t *testing.T) {
	input := writeInput(t,
		line("a"), line("b"), line("a"), line("c"),
		line("b"), line("d"), line("e"), line("a"),
	)

	var wantIDs string
	var wantProcessed, wantSkipped int
	for i, size := range []int{1, 2, 3, 7, 100} {
		repo := newFakeRepo()
		stubRepo(t, repo)

		sum, err := Run(context.Background(), runConfig(input, outPath(t), size), "run-ind")
		if err != nil {
			t.Fatalf("Run(size=%d) error = %v", size, err)
		}

		ids := strings.Join(repo.docIDs(), ",")
		if i == 0 {
			wantIDs, wantProcessed, wantSkipped = ids, sum.Processed, sum.Skipped
			continue
		}
		if ids != wantIDs {
			t.Fatalf("size=%d documents ids = %q, want %q", size, ids, wantIDs)
		}
		if sum.Processed != wantProcessed || sum.Skipped != wantSkipped {
			t.Fatalf("size=%d summary = %+v, want Processed=%d Skipped=%d",
				size, sum, wantProcessed, wantSkipped)
		}
	}
}

// TestRunFailedChunkKeepsCommittedPrefix fails the second commit and checks
// that the destination holds exactly the first chunk, nothing more.
func TestRunFailedChunkKeepsCommittedPrefix(t *testing.T) {
	input := writeInput(t,
		line("a"), line("b"), line("c"),
		line("d"), line("e"), line("f"),
	)
	repo := newFakeRepo()
	repo.failOnCall = 2
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(input, outPath(t), 3), "run-f")
	if !errs.IsWrite(err) {
		t.Fatalf("Run() error = %v, want WriteError", err)
	}
	var werr *errs.WriteError
	if !errors.As(err, &werr) || werr.Chunk != 2 {
		t.Fatalf("WriteError.Chunk = %v, want 2", err)
	}

	if got := repo.docIDs(); strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("documents ids = %v, want only the first chunk [a b c]", got)
	}
	if sum.Chunks != 1 || sum.Processed != 3 {
		t.Fatalf("summary = %+v, want Chunks=1 Processed=3", sum)
	}
}

// TestRunChunkSizeOneCommitsPerRecord loads N distinct records at chunk size
// one and expects one transaction per record; a duplicate adds none.
func TestRunChunkSizeOneCommitsPerRecord(t *testing.T) {
	input := writeInput(t, line("a"), line("b"), line("c"), line("b"), line("d"))
	repo := newFakeRepo()
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(input, outPath(t), 1), "run-c1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if repo.inserts != 4 {
		t.Fatalf("InsertBatch calls = %d, want 4 (one per distinct record)", repo.inserts)
	}
	if sum.Chunks != 4 || sum.Processed != 4 || sum.Skipped != 1 {
		t.Fatalf("summary = %+v, want Chunks=4 Processed=4 Skipped=1", sum)
	}
}

// TestRunDuplicateCounting loads a,a,b in one chunk and checks the counts.
func TestRunDuplicateCounting(t *testing.T) {
	input := writeInput(t, line("a"), line("a"), line("b"))
	repo := newFakeRepo()
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(input, outPath(t), 10), "run-d")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Processed != 2 || sum.Skipped != 1 || sum.Chunks != 1 {
		t.Fatalf("summary = %+v, want Processed=2 Skipped=1 Chunks=1", sum)
	}
	if got := repo.docIDs(); strings.Join(got, ",") != "a,b" {
		t.Fatalf("documents ids = %v, want [a b]", got)
	}
}

// TestRunExistingOutputFile pre-creates the destination file and expects the
// run to refuse it before any repository is opened.
func TestRunExistingOutputFile(t *testing.T) {
	input := writeInput(t, line("a"))
	out := filepath.Join(t.TempDir(), "out.db")
	if err := os.WriteFile(out, []byte("existing"), 0o644); err != nil {
		t.Fatalf("pre-create output: %v", err)
	}
	calls := stubRepo(t, newFakeRepo())

	_, err := Run(context.Background(), runConfig(input, out, 10), "run-e")
	if !errs.IsAlreadyExists(err) {
		t.Fatalf("Run() error = %v, want AlreadyExistsError", err)
	}
	if *calls != 0 {
		t.Fatalf("repository factory ran %d times, want 0 (no side effects)", *calls)
	}

	got, rerr := os.ReadFile(out)
	if rerr != nil || string(got) != "existing" {
		t.Fatalf("pre-existing output modified: content=%q err=%v", got, rerr)
	}
}

// TestRunExistingDocumentsTable probes a server destination that already has
// the primary table and expects a refusal with no DDL executed.
func TestRunExistingDocumentsTable(t *testing.T) {
	input := writeInput(t, line("a"))
	repo := newFakeRepo()
	repo.existing[schema.TableDocuments] = true
	stubRepo(t, repo)

	_, err := Run(context.Background(),
		runConfig(input, "postgres://user@dbhost:5432/arxiv", 10), "run-t")
	if !errs.IsAlreadyExists(err) {
		t.Fatalf("Run() error = %v, want AlreadyExistsError", err)
	}

	if len(repo.execSQL) != 0 {
		t.Fatalf("DDL executed on existing destination: %v", repo.execSQL)
	}
	if repo.inserts != 0 {
		t.Fatalf("InsertBatch calls = %d, want 0", repo.inserts)
	}
	if !repo.closed {
		t.Fatalf("repository left open after refusal")
	}
}

// TestRunMissingInput expects a NotFoundError before anything else happens.
func TestRunMissingInput(t *testing.T) {
	calls := stubRepo(t, newFakeRepo())

	_, err := Run(context.Background(),
		runConfig(filepath.Join(t.TempDir(), "nope.jsonl"), outPath(t), 10), "run-m")
	if !errs.IsNotFound(err) {
		t.Fatalf("Run() error = %v, want NotFoundError", err)
	}
	if *calls != 0 {
		t.Fatalf("repository factory ran %d times, want 0", *calls)
	}
}

// TestRunRejectsBadConfig expects validation failures to surface as
// InvalidArgumentError without touching input or destination.
func TestRunRejectsBadConfig(t *testing.T) {
	input := writeInput(t, line("a"))
	calls := stubRepo(t, newFakeRepo())

	cfg := runConfig(input, outPath(t), 0) // chunk size below minimum
	_, err := Run(context.Background(), cfg, "run-b")
	if !errs.IsInvalidArgument(err) {
		t.Fatalf("Run() error = %v, want InvalidArgumentError", err)
	}
	if *calls != 0 {
		t.Fatalf("repository factory ran %d times, want 0", *calls)
	}
}

// TestRunMalformedAbort checks the default policy: the first unparsable line
// stops the run, keeping chunks committed before it.
func TestRunMalformedAbort(t *testing.T) {
	input := writeInput(t, line("a"), `{"id":`, line("b"))

	t.Run("mid chunk nothing committed", func(t *testing.T) {
		repo := newFakeRepo()
		stubRepo(t, repo)

		sum, err := Run(context.Background(), runConfig(input, outPath(t), 10), "run-a1")
		if !errs.IsMalformedRecord(err) {
			t.Fatalf("Run() error = %v, want MalformedRecordError", err)
		}
		var merr *errs.MalformedRecordError
		if !errors.As(err, &merr) || merr.Line != 2 {
			t.Fatalf("MalformedRecordError.Line = %v, want 2", err)
		}
		if repo.inserts != 0 || sum.Chunks != 0 {
			t.Fatalf("inserts=%d chunks=%d, want no commits", repo.inserts, sum.Chunks)
		}
	})

	t.Run("committed prefix survives", func(t *testing.T) {
		repo := newFakeRepo()
		stubRepo(t, repo)

		sum, err := Run(context.Background(), runConfig(input, outPath(t), 1), "run-a2")
		if !errs.IsMalformedRecord(err) {
			t.Fatalf("Run() error = %v, want MalformedRecordError", err)
		}
		if got := repo.docIDs(); strings.Join(got, ",") != "a" {
			t.Fatalf("documents ids = %v, want [a]", got)
		}
		if sum.Chunks != 1 {
			t.Fatalf("summary.Chunks = %d, want 1", sum.Chunks)
		}
	})
}

// TestRunMalformedSkip checks the skip policy end to end: bad lines are
// counted, good ones load, duplicates still dedupe.
func TestRunMalformedSkip(t *testing.T) {
	input := writeInput(t,
		line("a"), `{"id":`, line("b"), `[1,2,3]`, line("a"),
	)
	repo := newFakeRepo()
	stubRepo(t, repo)

	cfg := runConfig(input, outPath(t), 10)
	cfg.OnMalformed = config.MalformedSkip
	sum, err := Run(context.Background(), cfg, "run-s")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Processed != 2 || sum.Failed != 2 || sum.Skipped != 1 {
		t.Fatalf("summary = %+v, want Processed=2 Failed=2 Skipped=1", sum)
	}
	if got := repo.docIDs(); strings.Join(got, ",") != "a,b" {
		t.Fatalf("documents ids = %v, want [a b]", got)
	}
	if sum.Lines != 5 {
		t.Fatalf("summary.Lines = %d, want 5", sum.Lines)
	}
}

// TestRunEmptyInput loads an empty file: schema is created, nothing else.
func TestRunEmptyInput(t *testing.T) {
	input := writeInput(t)
	repo := newFakeRepo()
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(input, outPath(t), 10), "run-0")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Processed != 0 || sum.Chunks != 0 || sum.Lines != 0 {
		t.Fatalf("summary = %+v, want all-zero counts", sum)
	}
	if len(repo.execSQL) == 0 {
		t.Fatalf("no DDL executed; schema must be created even for empty input")
	}
}

// TestRunGzipInput loads a gzip-compressed dump through the default opener.
func TestRunGzipInput(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dump.jsonl.gz")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := gzip.NewWriter(f)
	for _, id := range []string{"a", "b", "c"} {
		fmt.Fprintln(w, line(id))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	repo := newFakeRepo()
	stubRepo(t, repo)

	sum, err := Run(context.Background(), runConfig(p, outPath(t), 2), "run-gz")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Processed != 3 {
		t.Fatalf("summary.Processed = %d, want 3", sum.Processed)
	}
}

// TestRunPrecount enables the extra counting pass and checks the total.
func TestRunPrecount(t *testing.T) {
	input := writeInput(t, line("a"), line("b"), line("c"))
	repo := newFakeRepo()
	stubRepo(t, repo)

	cfg := runConfig(input, outPath(t), 2)
	cfg.Precount = true
	sum, err := Run(context.Background(), cfg, "run-p")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Lines != 3 || sum.Processed != 3 {
		t.Fatalf("summary = %+v, want Lines=3 Processed=3", sum)
	}
}

// TestRunCanceledContext verifies that a pre-canceled context stops the run
// with a context error.
func TestRunCanceledContext(t *testing.T) {
	input := writeInput(t, line("a"))
	stubRepo(t, newFakeRepo())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, runConfig(input, outPath(t), 10), "run-x")
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
