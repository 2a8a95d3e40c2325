package driven

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// IngestLedger records which documents were written to the vector store.
type IngestLedger interface {
	// Record upserts an entry by key.
	Record(ctx context.Context, entry domain.LedgerEntry) error

	// Get returns the entry for a key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) (*domain.LedgerEntry, error)

	// List returns up to limit entries, newest first. A limit of 0 means all.
	List(ctx context.Context, limit int) ([]domain.LedgerEntry, error)

	// HasContent reports whether key was recorded with the given content hash.
	HasContent(ctx context.Context, key, contentHash string) (bool, error)

	// Close releases resources.
	Close() error
}
