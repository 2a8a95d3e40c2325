package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
)

func records(n, dims int) []domain.VectorRecord {
	out := make([]domain.VectorRecord, n)
	for i := range out {
		out[i] = domain.VectorRecord{ID: fmt.Sprintf("doc-%d", i), Values: make([]float32, dims)}
	}
	return out
}

func TestBatches(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{n: 0, size: 5, want: []int{}},
		{n: 5, size: 5, want: []int{5}},
		{n: 12, size: 5, want: []int{5, 5, 2}},
		{n: 3, size: 1, want: []int{1, 1, 1}},
		{n: 7, size: 0, want: []int{5, 2}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d by %d", tt.n, tt.size), func(t *testing.T) {
			got := Batches(records(tt.n, 2), tt.size)
			sizes := make([]int, len(got))
			for i, b := range got {
				sizes[i] = len(b)
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestUpsertBatches(t *testing.T) {
	ctx := context.Background()

	t.Run("one write per batch", func(t *testing.T) {
		calls := 0
		n, err := UpsertBatches(ctx, records(12, 3), 5, 3, func(_ context.Context, _ []domain.VectorRecord) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 12, n)
		assert.Equal(t, 3, calls)
	})

	t.Run("failure keeps earlier batches", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		n, err := UpsertBatches(ctx, records(12, 3), 5, 3, func(_ context.Context, _ []domain.VectorRecord) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 5, n)
		assert.Equal(t, 2, calls)
	})

	t.Run("wrong dimension writes nothing", func(t *testing.T) {
		recs := records(6, 3)
		recs[5].Values = make([]float32, 2)
		calls := 0
		n, err := UpsertBatches(ctx, recs, 5, 3, func(_ context.Context, _ []domain.VectorRecord) error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.Zero(t, n)
		assert.Zero(t, calls)
	})

	t.Run("missing id", func(t *testing.T) {
		recs := records(1, 3)
		recs[0].ID = ""
		_, err := UpsertBatches(ctx, recs, 5, 3, func(_ context.Context, _ []domain.VectorRecord) error { return nil })
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 1}))
}

func TestTopK(t *testing.T) {
	assert.Equal(t, domain.DefaultTopK, TopK(0))
	assert.Equal(t, 3, TopK(3))
}
