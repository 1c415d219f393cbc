// Package mysql is the MySQL storage backend, registered with the storage
// factory under the kind "mysql". Rows are written through prepared
// INSERTs rather than LOAD DATA, which needs the FILE privilege most
// managed servers withhold.
package mysql

import (
	"context"

	"arxload/internal/schema"
	"arxload/internal/storage"
	myddl "arxload/internal/storage/mysql/ddl"
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
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		repo, cleanup, err := openRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &registeredRepo{Repository: repo, cleanup: cleanup}, nil
	})

	storage.RegisterDDL("mysql",
		func(ctx context.Context, repo storage.Repository, tables []schema.TableDef) error {
			return myddl.EnsureTables(ctx, repo, tables)
		})
}
