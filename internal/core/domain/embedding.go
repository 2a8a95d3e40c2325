package domain

// EmbeddingPath identifies which embedder produced a vector.
type EmbeddingPath string

const (
	// EmbeddingPrimary is the remote inference endpoint.
	EmbeddingPrimary EmbeddingPath = "primary"

	// EmbeddingFallback is the local model.
	EmbeddingFallback EmbeddingPath = "fallback"
)

// EmbeddingOutcome is a vector together with the path that served it.
type EmbeddingOutcome struct {
	Vector []float32
	Path   EmbeddingPath

	// PrimaryErr is the primary failure absorbed by the fallback, if any.
	PrimaryErr error
}
