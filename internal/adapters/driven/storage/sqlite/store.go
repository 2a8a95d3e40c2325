package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/accord/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// DatabaseFile is the ledger file name inside the data directory.
const DatabaseFile = "ledger.db"

var _ driven.IngestLedger = (*Ledger)(nil)

// Ledger is the SQLite ingest ledger.
type Ledger struct {
	db   *sql.DB
	path string
}

// NewLedger opens (creating if needed) the ledger in dataDir.
// If dataDir is empty, defaults to ~/.accord.
func NewLedger(dataDir string) (*Ledger, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".accord")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for concurrent readers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Ledger{db: db, path: dbPath}
	if err := l.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// migrate runs all pending migrations and records each applied version.
func (l *Ledger) migrate(fsys fs.FS) error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := l.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_ingest_ledger.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := l.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// Record stores or replaces the entry for its key.
func (l *Ledger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("%w: ledger entry needs a key", domain.ErrInvalidInput)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ingest_ledger (key, title, origin, source, content_hash, dimensions, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			origin = excluded.origin,
			source = excluded.source,
			content_hash = excluded.content_hash,
			dimensions = excluded.dimensions,
			ingested_at = excluded.ingested_at
	`, entry.Key, entry.Title, string(entry.Origin), entry.Source, entry.ContentHash,
		entry.Dimensions, entry.IngestedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s: %w", entry.Key, err)
	}
	return nil
}

// Get returns the entry for a key.
func (l *Ledger) Get(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT key, title, origin, source, content_hash, dimensions, ingested_at
		FROM ingest_ledger WHERE key = ?
	`, key)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. A limit of 0 means all.
func (l *Ledger) List(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT key, title, origin, source, content_hash, dimensions, ingested_at
		FROM ingest_ledger ORDER BY ingested_at DESC, key ASC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// HasContent reports whether key was recorded with the given content hash.
func (l *Ledger) HasContent(ctx context.Context, key, contentHash string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ingest_ledger WHERE key = ? AND content_hash = ?",
		key, contentHash,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.LedgerEntry, error) {
	var (
		e      domain.LedgerEntry
		origin string
		nanos  int64
	)
	if err := s.Scan(&e.Key, &e.Title, &origin, &e.Source, &e.ContentHash, &e.Dimensions, &nanos); err != nil {
		return nil, err
	}
	e.Origin = domain.Origin(origin)
	e.IngestedAt = time.Unix(0, nanos).UTC()
	return &e, nil
}
