package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.IngestLedger = (*Ledger)(nil)

// Ledger is an in-memory driven.IngestLedger. Its entries are lost when
// the process exits.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]domain.LedgerEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]domain.LedgerEntry)}
}

// Record upserts an entry by key.
func (l *Ledger) Record(_ context.Context, entry domain.LedgerEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("%w: ledger entry key is required", domain.ErrInvalidInput)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.Key] = entry
	return nil
}

// Get returns the entry for key, or domain.ErrNotFound.
func (l *Ledger) Get(_ context.Context, key string) (*domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// List returns up to limit entries, newest first, ties broken by key.
func (l *Ledger) List(_ context.Context, limit int) ([]domain.LedgerEntry, error) {
	l.mu.RLock()
	out := make([]domain.LedgerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].IngestedAt.Equal(out[j].IngestedAt) {
			return out[i].IngestedAt.After(out[j].IngestedAt)
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// HasContent reports whether key was recorded with contentHash.
func (l *Ledger) HasContent(_ context.Context, key, contentHash string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[key]
	return ok && entry.ContentHash == contentHash, nil
}

// Close is a no-op.
func (l *Ledger) Close() error {
	return nil
}
