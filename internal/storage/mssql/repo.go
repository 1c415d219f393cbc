package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"arxload/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository feeds batches to SQL Server through the driver's bulk copy:
// one CopyIn stream per table group, one transaction per batch.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository dials the server and returns the repository plus a cleanup
// function for the pool. msdsn.Parse runs first so a malformed DSN fails
// before any dial.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
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

// InsertBatch bulk-copies every table group of the batch into its target
// table within a single transaction. Either the whole batch commits or the
// destination is left untouched.
func (r *Repository) InsertBatch(ctx context.Context, batch storage.Batch) (int64, error) {
	if batch.Empty() {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	var inserted int64
	for _, group := range batch {
		if len(group.Rows) == 0 {
			continue
		}
		n, err := copyGroup(ctx, tx, group)
		if err != nil {
			rollback()
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// copyGroup performs one bulk copy of a single table group inside tx.
func copyGroup(ctx context.Context, tx *sql.Tx, group storage.TableRows) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(group.Table, mssql.BulkOptions{}, group.Columns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk %s: %w", group.Table, err)
	}
	for i := range group.Rows {
		if _, err := stmt.ExecContext(ctx, group.Rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk %s row %d: %w", group.Table, i, err)
		}
	}
	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize %s: %w", group.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// TableExists reports whether the named table exists in the connected
// database.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	return n > 0, nil
}

// Exec runs one statement on the pool, outside any transaction.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}
