package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
)

func TestLedger_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	require.NoError(t, l.Record(ctx, domain.LedgerEntry{Key: "upload-1", Title: "v1", ContentHash: "h1"}))
	require.NoError(t, l.Record(ctx, domain.LedgerEntry{Key: "upload-1", Title: "v2", ContentHash: "h2"}))

	entry, err := l.Get(ctx, "upload-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", entry.Title)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = l.Record(ctx, domain.LedgerEntry{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedger_List(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(ctx, domain.LedgerEntry{Key: "b", IngestedAt: base}))
	require.NoError(t, l.Record(ctx, domain.LedgerEntry{Key: "a", IngestedAt: base}))
	require.NoError(t, l.Record(ctx, domain.LedgerEntry{Key: "c", IngestedAt: base.Add(time.Minute)}))

	entries, err := l.List(ctx, 0)
	require.NoError(t, err)
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"c", "a", "b"}, keys)

	entries, err = l.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	empty, err := NewLedger().List(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLedger_HasContent(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	require.NoError(t, l.Record(ctx, domain.LedgerEntry{Key: "k", ContentHash: "abc"}))

	ok, err := l.HasContent(ctx, "k", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.HasContent(ctx, "k", "def")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.HasContent(ctx, "other", "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}
