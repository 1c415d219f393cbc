package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"arxload/internal/storage"

	_ "modernc.org/sqlite" // cgo-free SQLite driver
)

// Config carries what the factory hands this backend. A batch names its own
// tables and columns, so the connection string is the whole configuration.
type Config struct {
	// DSN is the database file path, or a file: URI when driver knobs are
	// needed ("file:arxiv.db?cache=shared&_fk=1").
	DSN string
}

// Repository writes batches to SQLite through database/sql. SQLite has no
// bulk-load path like Postgres COPY, so InsertBatch relies on one prepared
// INSERT per table inside a single transaction, which keeps moderate volumes
// fast enough.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database file named by the DSN and returns the
// repository with a cleanup function that closes it. Plain paths and file:
// URIs both work:
//
//	"arxiv.db"
//	"file:arxiv.db?cache=shared&_fk=1"
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// sql.Open defers real work, so ping to surface a bad path now.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// The driver leaves foreign keys off unless asked.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	cleanup := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, cleanup, nil
}

// InsertBatch inserts every table group of the batch inside a single
// transaction using one prepared INSERT statement per table. Either the whole
// batch commits or the destination is left untouched.
//
// It returns the number of rows successfully inserted. len(row) must equal
// len(Columns) for every row of every group.
func (r *Repository) InsertBatch(ctx context.Context, batch storage.Batch) (int64, error) {
	if batch.Empty() {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}

	var inserted int64
	for _, group := range batch {
		n, err := insertGroup(ctx, tx, group)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// insertGroup executes one prepared INSERT per row of a single table group
// within the supplied transaction.
func insertGroup(ctx context.Context, tx *sql.Tx, group storage.TableRows) (int64, error) {
	if len(group.Columns) == 0 {
		return 0, fmt.Errorf("sqlite: insert %s: columns must not be empty", group.Table)
	}
	if len(group.Rows) == 0 {
		return 0, nil
	}

	// Build INSERT INTO "table" ("cols") VALUES (?, ?, ...).
	cols := make([]string, len(group.Columns))
	placeholders := make([]string, len(group.Columns))
	for i, c := range group.Columns {
		cols[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(group.Table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert %s: %w", group.Table, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range group.Rows {
		if len(row) != len(group.Columns) {
			return inserted, fmt.Errorf("sqlite: insert %s: row length %d != columns length %d",
				group.Table, len(row), len(group.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("sqlite: insert %s: %w", group.Table, err)
		}
		inserted++
	}
	return inserted, nil
}

// TableExists reports whether the named table is present in sqlite_master.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	var n int
	if err := r.db.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlite: table exists: %w", err)
	}
	return n > 0, nil
}

// Exec runs a single SQL statement, usually DDL handed down by the table
// bootstrap. Blank statements are ignored.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// quoteIdent safely quotes a single identifier segment for SQLite.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
