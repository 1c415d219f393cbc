package storage

import (
	"context"
	"fmt"
	"sync"

	"arxload/internal/schema"
)

// DDLBootstrapper is a backend-specific function that renders the destination
// tables into dialect DDL and applies it via repo.Exec (CREATE TABLE plus any
// constraints the dialect supports).
type DDLBootstrapper func(ctx context.Context, repo Repository, tables []schema.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL binds a DDLBootstrapper to a storage kind, replacing any
// earlier one. Backends call it from init alongside Register.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema runs the bootstrapper registered for kind against tables,
// using the already-open repo. The dialect behind kind stays hidden from
// the caller.
func EnsureSchema(ctx context.Context, kind string, repo Repository, tables []schema.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage kind %q has no DDL bootstrapper", kind)
	}
	return fn(ctx, repo, tables)
}
