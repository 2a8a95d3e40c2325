// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorStore which stores and searches vectors.
// EmbeddingService generates vectors; VectorStore stores them.
//
// Implementations include:
//   - Hugging Face inference (all-MiniLM-L6-v2, remote)
//   - Ollama (all-minilm, local)
//   - A fallback composite of the two
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// The result always has Dimensions() elements, or an error is returned.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has the same length and order as texts. Implementations
	// may return partial results with nil slots for failed texts together
	// with a non-nil error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384).
	// This is determined by the model and must match VectorStore configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// OutcomeEmbedder is an EmbeddingService that reports which path served a vector.
type OutcomeEmbedder interface {
	EmbeddingService

	// EmbedWithOutcome embeds text and reports the serving path.
	EmbedWithOutcome(ctx context.Context, text string) (domain.EmbeddingOutcome, error)
}
