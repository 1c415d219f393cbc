// Package sqlite is the SQLite storage backend.
//
// It registers itself with the storage factory under the kind "sqlite", so
// importing this package (normally through storage/all) is all a caller
// needs to make the backend available to storage.New.
package sqlite

import (
	"context"

	"arxload/internal/schema"
	"arxload/internal/storage"
	sqliteddl "arxload/internal/storage/sqlite/ddl"
)

// openRepository stands in for NewRepository so tests can swap in a fake
// without touching a real database file.
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
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		repo, cleanup, err := openRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &registeredRepo{Repository: repo, cleanup: cleanup}, nil
	})

	storage.RegisterDDL("sqlite",
		func(ctx context.Context, repo storage.Repository, tables []schema.TableDef) error {
			return sqliteddl.EnsureTables(ctx, repo, tables)
		})
}
