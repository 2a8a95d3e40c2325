package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
)

type stubEmbedder struct {
	name     string
	dims     int
	err      error
	batchErr error
	failText string
	calls    int
	closed   bool
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.failText != "" && text == s.failText {
		return nil, errors.New("cannot embed " + text)
	}
	v := make([]float32, s.dims)
	v[0] = float32(len(text))
	return v, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return s.dims }
func (s *stubEmbedder) ModelName() string            { return s.name }
func (s *stubEmbedder) Ping(_ context.Context) error { return s.err }
func (s *stubEmbedder) Close() error                 { s.closed = true; return nil }

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(&stubEmbedder{dims: 384}, &stubEmbedder{dims: 768})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	e, err := New(&stubEmbedder{name: "hf", dims: 384}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hf", e.ModelName())
	assert.Equal(t, 384, e.Dimensions())
}

func TestEmbedWithOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("primary serves", func(t *testing.T) {
		primary := &stubEmbedder{name: "hf", dims: 384}
		secondary := &stubEmbedder{name: "ollama", dims: 384}
		e, err := New(primary, secondary)
		require.NoError(t, err)

		out, err := e.EmbedWithOutcome(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, domain.EmbeddingPrimary, out.Path)
		assert.Len(t, out.Vector, 384)
		assert.NoError(t, out.PrimaryErr)
		assert.Zero(t, secondary.calls)
	})

	t.Run("primary failure falls back", func(t *testing.T) {
		cause := errors.New("status 503")
		primary := &stubEmbedder{name: "hf", dims: 384, err: cause}
		secondary := &stubEmbedder{name: "ollama", dims: 384}
		e, err := New(primary, secondary)
		require.NoError(t, err)

		out, err := e.EmbedWithOutcome(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, domain.EmbeddingFallback, out.Path)
		assert.Len(t, out.Vector, 384)
		assert.ErrorIs(t, out.PrimaryErr, cause)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("both failing", func(t *testing.T) {
		e, err := New(
			&stubEmbedder{dims: 384, err: errors.New("timeout")},
			&stubEmbedder{dims: 384, err: errors.New("connection refused")},
		)
		require.NoError(t, err)

		_, err = e.EmbedWithOutcome(ctx, "hello")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "timeout")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("no secondary", func(t *testing.T) {
		cause := errors.New("timeout")
		e, err := New(&stubEmbedder{dims: 384, err: cause}, nil)
		require.NoError(t, err)

		_, err = e.EmbedWithOutcome(ctx, "hello")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("invalid input is not retried", func(t *testing.T) {
		secondary := &stubEmbedder{dims: 384}
		e, err := New(&stubEmbedder{dims: 384, err: domain.ErrInvalidInput}, secondary)
		require.NoError(t, err)

		_, err = e.EmbedWithOutcome(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, secondary.calls)
	})
}

func TestEmbedBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("primary batch", func(t *testing.T) {
		e, err := New(&stubEmbedder{dims: 4}, &stubEmbedder{dims: 4})
		require.NoError(t, err)

		vecs, err := e.EmbedBatch(ctx, []string{"a", "bb", "ccc"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
		assert.Equal(t, float32(3), vecs[2][0])
	})

	t.Run("falls back per item preserving order", func(t *testing.T) {
		primary := &stubEmbedder{dims: 4, err: errors.New("down"), batchErr: errors.New("down")}
		secondary := &stubEmbedder{dims: 4}
		e, err := New(primary, secondary)
		require.NoError(t, err)

		vecs, err := e.EmbedBatch(ctx, []string{"a", "bb"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.Equal(t, float32(1), vecs[0][0])
		assert.Equal(t, float32(2), vecs[1][0])
		assert.Equal(t, 2, secondary.calls)
	})

	t.Run("item failing on both paths leaves nil slot", func(t *testing.T) {
		primary := &stubEmbedder{dims: 4, batchErr: errors.New("batch down"), failText: "bad"}
		secondary := &stubEmbedder{dims: 4, failText: "bad"}
		e, err := New(primary, secondary)
		require.NoError(t, err)

		vecs, err := e.EmbedBatch(ctx, []string{"a", "bad", "ccc"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "text 1")
		require.Len(t, vecs, 3)
		assert.Equal(t, float32(1), vecs[0][0])
		assert.Nil(t, vecs[1])
		assert.Equal(t, float32(3), vecs[2][0])
	})

	t.Run("empty", func(t *testing.T) {
		e, err := New(&stubEmbedder{dims: 4}, nil)
		require.NoError(t, err)
		vecs, err := e.EmbedBatch(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})
}

func TestPingAndClose(t *testing.T) {
	ctx := context.Background()
	primary := &stubEmbedder{dims: 4, err: errors.New("down")}
	secondary := &stubEmbedder{dims: 4}
	e, err := New(primary, secondary)
	require.NoError(t, err)

	assert.NoError(t, e.Ping(ctx))
	secondary.err = errors.New("also down")
	assert.ErrorIs(t, e.Ping(ctx), domain.ErrEmbeddingUnavailable)

	require.NoError(t, e.Close())
	assert.True(t, primary.closed)
	assert.True(t, secondary.closed)
}
