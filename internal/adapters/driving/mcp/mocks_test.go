package mcp

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	answer   string
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Ask(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) (string, []domain.SearchResult, error) {
	m.lastOpts = opts
	return m.answer, m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	entries []domain.LedgerEntry
	err     error
}

func (m *mockDocumentService) List(_ context.Context, _ int) ([]domain.LedgerEntry, error) {
	return m.entries, m.err
}

func (m *mockDocumentService) Get(_ context.Context, key string) (*domain.LedgerEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.entries {
		if m.entries[i].Key == key {
			return &m.entries[i], nil
		}
	}
	return nil, domain.ErrNotFound
}
