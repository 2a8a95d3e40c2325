// Package fallback composes a primary and a secondary embedding service.
// The primary is always tried first; the secondary serves only when the
// primary fails, and the outcome records which one did.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.OutcomeEmbedder = (*Embedder)(nil)

// Embedder tries the primary service and falls back to the secondary.
type Embedder struct {
	primary   driven.EmbeddingService
	secondary driven.EmbeddingService
}

// New creates a fallback embedder. A nil secondary disables the fallback.
// Both services must produce vectors of the same dimension.
func New(primary, secondary driven.EmbeddingService) (*Embedder, error) {
	if primary == nil {
		return nil, fmt.Errorf("%w: primary embedding service is required", domain.ErrInvalidInput)
	}
	if secondary != nil && secondary.Dimensions() != primary.Dimensions() {
		return nil, fmt.Errorf("%w: primary has %d dimensions, fallback has %d",
			domain.ErrDimensionMismatch, primary.Dimensions(), secondary.Dimensions())
	}
	return &Embedder{primary: primary, secondary: secondary}, nil
}

// Primary returns the primary service.
func (e *Embedder) Primary() driven.EmbeddingService { return e.primary }

// Secondary returns the fallback service, or nil.
func (e *Embedder) Secondary() driven.EmbeddingService { return e.secondary }

// EmbedWithOutcome embeds text and reports which path served it.
func (e *Embedder) EmbedWithOutcome(ctx context.Context, text string) (domain.EmbeddingOutcome, error) {
	vec, err := e.primary.Embed(ctx, text)
	if err == nil {
		return domain.EmbeddingOutcome{Vector: vec, Path: domain.EmbeddingPrimary}, nil
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return domain.EmbeddingOutcome{}, err
	}

	if e.secondary == nil {
		return domain.EmbeddingOutcome{}, errors.Join(domain.ErrEmbeddingUnavailable, err)
	}
	if ctx.Err() != nil {
		return domain.EmbeddingOutcome{}, errors.Join(domain.ErrEmbeddingUnavailable, err)
	}

	logger.Warn("primary embedding (%s) failed, using %s: %v", e.primary.ModelName(), e.secondary.ModelName(), err)

	vec, secErr := e.secondary.Embed(ctx, text)
	if secErr != nil {
		return domain.EmbeddingOutcome{}, errors.Join(
			domain.ErrEmbeddingUnavailable,
			fmt.Errorf("primary: %w", err),
			fmt.Errorf("fallback: %w", secErr),
		)
	}
	return domain.EmbeddingOutcome{Vector: vec, Path: domain.EmbeddingFallback, PrimaryErr: err}, nil
}

// Embed generates an embedding, ignoring which path served it.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedWithOutcome(ctx, text)
	if err != nil {
		return nil, err
	}
	return out.Vector, nil
}

// EmbedBatch tries the primary batch call. If it fails, each text is
// embedded on its own. A text that fails on both paths leaves a nil slot,
// and its error is joined into the returned error alongside the vectors
// that did succeed.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vecs, err := e.primary.EmbedBatch(ctx, texts)
	if err == nil {
		return vecs, nil
	}
	logger.Debug("primary batch embedding failed, embedding %d texts one by one: %v", len(texts), err)

	out := make([][]float32, len(texts))
	var errs []error
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			errs = append(errs, fmt.Errorf("text %d: %w", i, err))
			continue
		}
		out[i] = v
	}
	return out, errors.Join(errs...)
}

// Dimensions returns the primary's vector size.
func (e *Embedder) Dimensions() int {
	return e.primary.Dimensions()
}

// ModelName returns the primary model, with the fallback model if set.
func (e *Embedder) ModelName() string {
	if e.secondary == nil {
		return e.primary.ModelName()
	}
	return e.primary.ModelName() + " (fallback: " + e.secondary.ModelName() + ")"
}

// Ping succeeds if either path is reachable.
func (e *Embedder) Ping(ctx context.Context) error {
	err := e.primary.Ping(ctx)
	if err == nil || e.secondary == nil {
		return err
	}
	if secErr := e.secondary.Ping(ctx); secErr != nil {
		return errors.Join(domain.ErrEmbeddingUnavailable, err, secErr)
	}
	return nil
}

// Close closes both services.
func (e *Embedder) Close() error {
	var errs []error
	if err := e.primary.Close(); err != nil {
		errs = append(errs, err)
	}
	if e.secondary != nil {
		if err := e.secondary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
