// Package mssql is the SQL Server storage backend, registered with the
// storage factory under the kind "mssql". Batches go in through the
// go-mssqldb bulk copy API, table group by table group inside one
// transaction.
package mssql

import (
	"context"

	"arxload/internal/schema"
	"arxload/internal/storage"
	msddl "arxload/internal/storage/mssql/ddl"
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
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		repo, cleanup, err := openRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &registeredRepo{Repository: repo, cleanup: cleanup}, nil
	})

	storage.RegisterDDL("mssql",
		func(ctx context.Context, repo storage.Repository, tables []schema.TableDef) error {
			return msddl.EnsureTables(ctx, repo, tables)
		})
}
