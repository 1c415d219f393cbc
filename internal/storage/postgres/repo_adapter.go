// Package postgres is the Postgres storage backend.
//
// The backend registers two things at init time: a factory under the kind
// "postgres", and a DDL bootstrapper that renders the destination tables
// into Postgres DDL. Callers reach both through the storage package and
// never import this one directly:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	defer repo.Close()
//
//	err = storage.EnsureSchema(ctx, "postgres", repo, schema.Tables())
package postgres

import (
	"context"
	"fmt"

	"arxload/internal/schema"
	"arxload/internal/storage"
	pgddl "arxload/internal/storage/postgres/ddl"
)

// openRepository stands in for NewRepository so tests can swap in a fake
// without a running server.
var openRepository = NewRepository

// registeredRepo carries the cleanup function returned by NewRepository as
// the Close method that storage.Repository requires.
type registeredRepo struct {
	*Repository
	cleanup func()
}

func (r *registeredRepo) Close() {
	if r.cleanup != nil {
		r.cleanup()
	}
}

var _ storage.Repository = (*registeredRepo)(nil)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		repo, cleanup, err := openRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &registeredRepo{Repository: repo, cleanup: cleanup}, nil
	})

	storage.RegisterDDL("postgres",
		func(ctx context.Context, repo storage.Repository, tables []schema.TableDef) error {
			if err := pgddl.EnsureTables(ctx, repo, tables); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}
