package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists documents recorded in the ingest ledger.
type DocumentService struct {
	ledger driven.IngestLedger
}

// NewDocumentService creates a new document service.
func NewDocumentService(ledger driven.IngestLedger) *DocumentService {
	return &DocumentService{ledger: ledger}
}

// List returns up to limit entries, newest first.
func (s *DocumentService) List(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", domain.ErrInvalidInput, limit)
	}
	entries, err := s.ledger.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return entries, nil
}

// Get returns the entry for key.
func (s *DocumentService) Get(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty document key", domain.ErrInvalidInput)
	}
	return s.ledger.Get(ctx, key)
}
