package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// setupTestLedger creates a ledger in a temporary directory.
func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := NewLedger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger
}

func testEntry(key string, at time.Time) domain.LedgerEntry {
	return domain.LedgerEntry{
		Key:         key,
		Title:       "Title " + key,
		Origin:      domain.OriginUpload,
		Source:      key + ".pdf",
		ContentHash: "hash-" + key,
		Dimensions:  384,
		IngestedAt:  at,
	}
}

func TestNewLedger_ErrorHandling(t *testing.T) {
	_, err := NewLedger("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewLedger_Success(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "accord")

	ledger, err := NewLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), ledger.Path())
	assert.FileExists(t, ledger.Path())
	assert.NoError(t, ledger.db.Ping())
}

func TestNewLedger_Migrations(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewLedger(dir)
	require.NoError(t, err)

	var version int
	require.NoError(t, ledger.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	var tables int
	require.NoError(t, ledger.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='ingest_ledger'",
	).Scan(&tables))
	assert.Equal(t, 1, tables)
	require.NoError(t, ledger.Close())

	// Reopening does not re-run applied migrations.
	reopened, err := NewLedger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var count int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLedger_RecordAndGet(t *testing.T) {
	ledger := setupTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 9, 30, 0, 123, time.UTC)

	require.NoError(t, ledger.Record(ctx, testEntry("upload-a", at)))

	got, err := ledger.Get(ctx, "upload-a")
	require.NoError(t, err)
	assert.Equal(t, testEntry("upload-a", at), *got)
}

func TestLedger_RecordOverwrites(t *testing.T) {
	ledger := setupTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Record(ctx, testEntry("k", at)))

	updated := testEntry("k", at.Add(time.Hour))
	updated.ContentHash = "hash-2"
	updated.Title = "Renamed"
	require.NoError(t, ledger.Record(ctx, updated))

	entries, err := ledger.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Renamed", entries[0].Title)
	assert.Equal(t, "hash-2", entries[0].ContentHash)
}

func TestLedger_RecordRequiresKey(t *testing.T) {
	ledger := setupTestLedger(t)
	err := ledger.Record(context.Background(), domain.LedgerEntry{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedger_GetNotFound(t *testing.T) {
	ledger := setupTestLedger(t)
	_, err := ledger.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ListNewestFirst(t *testing.T) {
	ledger := setupTestLedger(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Record(ctx, testEntry("old", base)))
	require.NoError(t, ledger.Record(ctx, testEntry("new", base.Add(48*time.Hour))))
	require.NoError(t, ledger.Record(ctx, testEntry("mid", base.Add(time.Hour))))

	entries, err := ledger.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "new", entries[0].Key)
	assert.Equal(t, "mid", entries[1].Key)
	assert.Equal(t, "old", entries[2].Key)

	limited, err := ledger.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].Key)
}

func TestLedger_ListEmpty(t *testing.T) {
	ledger := setupTestLedger(t)
	entries, err := ledger.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLedger_HasContent(t *testing.T) {
	ledger := setupTestLedger(t)
	ctx := context.Background()
	require.NoError(t, ledger.Record(ctx, testEntry("k", time.Now())))

	ok, err := ledger.HasContent(ctx, "k", "hash-k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.HasContent(ctx, "k", "other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ledger.HasContent(ctx, "missing", "hash-k")
	require.NoError(t, err)
	assert.False(t, ok)
}
