package ddl

import (
	"context"

	gddl "arxload/internal/ddl"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// EnsureTable runs the guarded creation script through the repository. The
// script's own IF OBJECT_ID check makes reruns no-ops, so no round trip to
// probe for the table happens here.
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
