package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"arxload/internal/storage"
)

// Config carries what the factory hands this backend. The DSN is a pgx pool
// connection string, either URL or keyword form.
type Config struct {
	DSN string
}

// Repository loads batches over a pgxpool. Each table group of a batch goes
// through the COPY protocol, and all groups of one batch share a single
// transaction, so a failed chunk leaves the destination untouched.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository opens a pool against the DSN and pings it once; an
// unreachable server surfaces here instead of at the first chunk. The
// returned cleanup function closes the pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	cleanup := func() { pool.Close() }
	return &Repository{pool: pool}, cleanup, nil
}

// InsertBatch COPYs every table group of the batch inside one transaction
// and returns the number of rows written.
func (r *Repository) InsertBatch(ctx context.Context, batch storage.Batch) (int64, error) {
	if batch.Empty() {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inserted int64
	for _, group := range batch {
		if len(group.Rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, splitFQN(group.Table), group.Columns, pgx.CopyFromRows(group.Rows))
		if err != nil {
			// PgError.Detail names the offending key; the generic message
			// does not.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Detail != "" {
				return 0, fmt.Errorf("copy into %s: %s (%s)", group.Table, pgErr.Detail, pgErr.SQLState())
			}
			return 0, fmt.Errorf("copy into %s: %w", group.Table, err)
		}
		inserted += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// TableExists reports whether the named table is visible in the
// connection's current schema.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	return exists, nil
}

// Exec runs one SQL statement, which is how the DDL bootstrap reaches the
// database.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// splitFQN turns "public.documents" into the identifier CopyFrom expects.
// Empty segments from stray dots are dropped.
func splitFQN(fqn string) pgx.Identifier {
	var id pgx.Identifier
	for _, seg := range strings.Split(fqn, ".") {
		if seg != "" {
			id = append(id, seg)
		}
	}
	return id
}
