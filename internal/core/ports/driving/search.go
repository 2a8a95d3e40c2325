package driving

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search embeds the query and returns the nearest stored documents.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Ask searches and then asks the generator to answer from the matches.
	// The results are returned even when generation fails.
	Ask(ctx context.Context, query string, opts domain.SearchOptions) (string, []domain.SearchResult, error)
}
