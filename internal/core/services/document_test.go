package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
)

func TestDocumentService_List(t *testing.T) {
	ledger := newMockLedger()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.entries["a"] = domain.LedgerEntry{Key: "a", Title: "old", IngestedAt: base}
	ledger.entries["b"] = domain.LedgerEntry{Key: "b", Title: "new", IngestedAt: base.Add(time.Hour)}

	svc := NewDocumentService(ledger)

	t.Run("newest first", func(t *testing.T) {
		entries, err := svc.List(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "b", entries[0].Key)
		assert.Equal(t, "a", entries[1].Key)
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := svc.List(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "new", entries[0].Title)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := svc.List(context.Background(), -1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDocumentService_Get(t *testing.T) {
	ledger := newMockLedger()
	ledger.entries["upload-1"] = domain.LedgerEntry{Key: "upload-1", Title: "lease"}
	svc := NewDocumentService(ledger)

	entry, err := svc.Get(context.Background(), " upload-1 ")
	require.NoError(t, err)
	assert.Equal(t, "lease", entry.Title)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
