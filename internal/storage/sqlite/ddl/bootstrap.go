package ddl

import (
	"context"

	gddl "arxload/internal/ddl"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// EnsureTable runs the definition's CREATE TABLE IF NOT EXISTS through the
// repository. Rerunning it against an existing table is a no-op.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
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
