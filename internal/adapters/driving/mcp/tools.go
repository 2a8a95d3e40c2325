package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// SearchInput is the input schema for the search and ask tools.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or phrase to look up in the agreements"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of matches to use (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string               `json:"answer"`
	Sources []SearchResultOutput `json:"sources"`
}

// SearchResultOutput represents a single match.
type SearchResultOutput struct {
	Key     string  `json:"key"`
	Title   string  `json:"title"`
	Origin  string  `json:"origin,omitempty"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the agreements most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the most relevant agreements",
	}, s.handleAsk)
}

func searchOptions(limit int) domain.SearchOptions {
	if limit <= 0 {
		limit = domain.DefaultTopK
	}
	return domain.SearchOptions{TopK: limit}
}

func toOutput(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			Key:     results[i].Match.ID,
			Title:   results[i].Title,
			Origin:  string(results[i].Origin),
			Score:   results[i].Match.Score,
			Preview: results[i].Preview,
		}
	}
	return out
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, searchOptions(input.Limit))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toOutput(results),
		Count:   len(results),
	}, nil
}

// handleAsk handles the ask tool invocation. Without a generator the
// matches are still returned with an empty answer.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, results, err := s.ports.Search.Ask(ctx, input.Query, searchOptions(input.Limit))
	if err != nil && !errors.Is(err, domain.ErrLLMUnavailable) {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer,
		Sources: toOutput(results),
	}, nil
}
