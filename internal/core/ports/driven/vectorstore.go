package driven

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// VectorStore provides similarity search over stored embeddings.
// Ranking is owned by the backing store; callers never re-rank.
type VectorStore interface {
	// EnsureIndex creates the index with the configured dimension and
	// cosine metric when it does not exist. It is idempotent.
	EnsureIndex(ctx context.Context) error

	// Upsert writes records in fixed-size batches, overwriting by ID.
	// It returns how many records were durably written. On a mid-way
	// failure, earlier batches stay written and later ones are not attempted.
	Upsert(ctx context.Context, records []domain.VectorRecord) (int, error)

	// Search returns at most topK matches in non-increasing score order.
	Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)

	// Dimensions returns the index dimension.
	Dimensions() int

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
