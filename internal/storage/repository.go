// Package storage contains storage-agnostic contracts shared by all database
// backends: the Repository interface, the multi-table Batch model, the
// backend factory, and the DDL bootstrap registry.
//
// Concrete backends (sqlite, postgres, mysql, mssql) live in subpackages and
// register themselves with the factory in their init functions; importing
// internal/storage/all (even blank) enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal contract the loader needs from a database
// backend. InsertBatch must be atomic: either every row of the batch is
// persisted or none are.
type Repository interface {
	// InsertBatch writes all rows of the batch inside a single transaction
	// and returns the number of rows inserted.
	InsertBatch(ctx context.Context, batch Batch) (int64, error)

	// Exec executes an arbitrary SQL statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// TableExists reports whether the named table already exists in the
	// destination. Backends use it for the no-implicit-overwrite check.
	TableExists(ctx context.Context, table string) (bool, error)

	// Close releases the underlying connection resources.
	Close()
}

// Config is the backend-agnostic configuration handed to a factory.
type Config struct {
	// Kind selects the registered backend ("sqlite", "postgres", ...).
	Kind string

	// DSN is the backend connection string. For sqlite this is a file path
	// or file: URI; for server backends a driver DSN/URL.
	DSN string
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	facMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend factory available under the given kind. A second
// registration for the same kind replaces the first.
func Register(kind string, fn Factory) {
	facMu.Lock()
	defer facMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind via the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	facMu.RLock()
	fn, ok := factories[cfg.Kind]
	facMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage kind %q", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the sorted list of registered backend kinds.
func ListKinds() []string {
	facMu.RLock()
	defer facMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
