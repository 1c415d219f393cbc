package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"arxload/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN is a go-sql-driver DSN, e.g. "user:pass@tcp(127.0.0.1:3306)/arxiv".
	DSN string
}

// Repository writes batches with one prepared INSERT per table group,
// executed row by row, all groups sharing a transaction per batch.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository connects to the server named by the DSN and returns the
// repository with a cleanup function that closes the pool. The DSN is parsed
// before dialing so a typo fails without a network round trip.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	cleanup := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, cleanup, nil
}

// InsertBatch inserts every table group of the batch inside a single
// transaction. Either the whole batch commits or the destination is left
// untouched.
func (r *Repository) InsertBatch(ctx context.Context, batch storage.Batch) (int64, error) {
	if batch.Empty() {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
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
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// insertGroup executes one prepared INSERT per row of a single table group
// within the supplied transaction.
func insertGroup(ctx context.Context, tx *sql.Tx, group storage.TableRows) (int64, error) {
	if len(group.Columns) == 0 {
		return 0, fmt.Errorf("mysql: insert %s: columns must not be empty", group.Table)
	}
	if len(group.Rows) == 0 {
		return 0, nil
	}

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
		return 0, fmt.Errorf("mysql: prepare insert %s: %w", group.Table, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range group.Rows {
		if len(row) != len(group.Columns) {
			return inserted, fmt.Errorf("mysql: insert %s: row length %d != columns length %d",
				group.Table, len(row), len(group.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("mysql: insert %s: %w", group.Table, err)
		}
		inserted++
	}
	return inserted, nil
}

// TableExists reports whether the named table exists in the connected schema.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, fmt.Errorf("mysql: table exists: %w", err)
	}
	return n > 0, nil
}

// Exec runs a single statement; the schema bootstrap uses it for its
// CREATE TABLE scripts.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// quoteIdent backtick-quotes one identifier, doubling embedded backticks.
func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
