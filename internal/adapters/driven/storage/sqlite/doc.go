// Package sqlite provides the SQLite-backed ingest ledger.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. The ledger records every document
// written to the vector store, keyed like the vector itself, so uploads can
// be listed and unchanged files skipped.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.accord/ledger.db
package sqlite
