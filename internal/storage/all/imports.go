// Package all registers every built-in storage backend.
//
// The package body is empty; a blank import is enough to run the init
// functions of the four backends, which hand their factories and DDL
// bootstrappers to the storage registry:
//
//	import _ "arxload/internal/storage/all"
//
// After that storage.New resolves the kinds "sqlite", "postgres", "mysql"
// and "mssql". A binary that only ships some engines can skip this package
// and import the backends it wants directly.
package all

import (
	_ "arxload/internal/storage/mssql"
	_ "arxload/internal/storage/mysql"
	_ "arxload/internal/storage/postgres"
	_ "arxload/internal/storage/sqlite"
)
