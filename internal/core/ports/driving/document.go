package driving

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// DocumentService exposes the ingest ledger to driving adapters.
type DocumentService interface {
	// List returns up to limit ingested documents, newest first.
	// A limit of 0 returns all of them.
	List(ctx context.Context, limit int) ([]domain.LedgerEntry, error)

	// Get returns one ingested document by its vector store key.
	Get(ctx context.Context, key string) (*domain.LedgerEntry, error)
}
