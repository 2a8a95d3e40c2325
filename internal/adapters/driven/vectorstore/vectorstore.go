// Package vectorstore holds helpers shared by the vector store adapters.
package vectorstore

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// Default configuration values shared by all backends.
const (
	DefaultIndexName  = "contracts"
	DefaultBatchSize  = 5
	DefaultDimensions = 384
)

// Batches splits records into consecutive slices of at most size records.
// The slices share the backing array of records.
func Batches(records []domain.VectorRecord, size int) [][]domain.VectorRecord {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]domain.VectorRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

// Validate checks every record before anything is written.
func Validate(records []domain.VectorRecord, dims int) error {
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has no id", domain.ErrInvalidInput, i)
		}
		if len(r.Values) != dims {
			return fmt.Errorf("%w: record %q has %d values, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Values), dims)
		}
	}
	return nil
}

// UpsertBatches validates records and hands them to write one batch at a
// time. It stops at the first failing batch and returns how many records
// the preceding batches wrote.
func UpsertBatches(
	ctx context.Context,
	records []domain.VectorRecord,
	size, dims int,
	write func(ctx context.Context, batch []domain.VectorRecord) error,
) (int, error) {
	if err := Validate(records, dims); err != nil {
		return 0, err
	}

	written := 0
	for i, batch := range Batches(records, size) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := write(ctx, batch); err != nil {
			return written, fmt.Errorf("batch %d: %w", i+1, err)
		}
		written += len(batch)
	}
	return written, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK clamps a requested result count.
func TopK(k int) int {
	if k <= 0 {
		return domain.DefaultTopK
	}
	return k
}
