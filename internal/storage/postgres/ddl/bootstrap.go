package ddl

import (
	"context"

	"arxload/internal/ddl"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// EnsureTable issues the definition's CREATE TABLE IF NOT EXISTS statement
// through the repository; existing tables are left alone.
func EnsureTable(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

// EnsureTables applies EnsureTable to every destination table in order.
// Tables must be ordered parent-first so foreign key references resolve.
func EnsureTables(ctx context.Context, repo storage.Repository, tables []schema.TableDef) error {
	for _, t := range tables {
		if err := EnsureTable(ctx, repo, FromSchema(t)); err != nil {
			return err
		}
	}
	return nil
}
