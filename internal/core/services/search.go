package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Answer generation defaults.
const (
	answerMaxTokens   = 512
	answerTemperature = 0.2

	// DefaultAnswerSystemPrompt is used when no prompt store is set.
	DefaultAnswerSystemPrompt = "You are a helpful assistant that answers questions about agreements."

	// DefaultAnswerInstruction closes the answer prompt when no prompt store is set.
	DefaultAnswerInstruction = "Answer the question based ONLY on the context documents above. " +
		"If the answer cannot be found in them, say so clearly."
)

// SearchService embeds queries and ranks stored documents by similarity.
// Ranking is left entirely to the vector store.
type SearchService struct {
	embeddingService driven.EmbeddingService
	vectorStore      driven.VectorStore
	llmService       driven.LLMService
	prompts          driven.PromptStore
	defaultTopK      int
}

// NewSearchService creates a new search service.
// The llmService parameter is optional (can be nil); Ask then fails
// with domain.ErrLLMUnavailable.
func NewSearchService(
	embeddingService driven.EmbeddingService,
	vectorStore driven.VectorStore,
	llmService driven.LLMService,
) *SearchService {
	return &SearchService{
		embeddingService: embeddingService,
		vectorStore:      vectorStore,
		llmService:       llmService,
		defaultTopK:      domain.DefaultTopK,
	}
}

// SetDefaultTopK sets the result count used when a query gives none.
func (s *SearchService) SetDefaultTopK(k int) {
	if k > 0 {
		s.defaultTopK = k
	}
}

// SetPromptStore lets the answer prompts be customised. Without one the
// built-in defaults are used.
func (s *SearchService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// prompt loads a named prompt, falling back to def.
func (s *SearchService) prompt(name, def string) string {
	if s.prompts == nil {
		return def
	}
	p, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		if err != nil {
			logger.Warn("Prompt %s unavailable, using default: %v", name, err)
		}
		return def
	}
	return p
}

// Search embeds the query and returns the nearest stored documents.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	logger.Debug("TopK: %d", topK)

	vector, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	matches, err := s.vectorStore.Search(ctx, vector, topK)
	if err != nil {
		logger.Warn("Vector search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.ResultFromMatch(m))
	}
	logger.Info("Final results: %d", len(results))

	return results, nil
}

// Ask searches and then asks the generator to answer from the matches.
// Results are returned alongside any generation error.
func (s *SearchService) Ask(
	ctx context.Context, query string, opts domain.SearchOptions,
) (string, []domain.SearchResult, error) {
	results, err := s.Search(ctx, query, opts)
	if err != nil {
		return "", nil, err
	}
	if s.llmService == nil {
		return "", results, domain.ErrLLMUnavailable
	}
	if len(results) == 0 {
		return "", results, nil
	}

	logger.Debug("Generating answer with %s", s.llmService.ModelName())
	prompt := buildAnswerPrompt(
		strings.TrimSpace(query), results,
		s.prompt(driven.PromptAnswerInstruction, DefaultAnswerInstruction),
	)
	genOpts := driven.GenerateOptions{
		MaxTokens:    answerMaxTokens,
		Temperature:  answerTemperature,
		SystemPrompt: s.prompt(driven.PromptAnswerSystem, DefaultAnswerSystemPrompt),
	}
	answer, err := s.llmService.Generate(ctx, prompt, genOpts)
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return "", results, fmt.Errorf("generate answer: %w", err)
	}
	return answer, results, nil
}

// BuildAnswerPrompt concatenates the question and the numbered result previews.
func BuildAnswerPrompt(query string, results []domain.SearchResult) string {
	return buildAnswerPrompt(query, results, DefaultAnswerInstruction)
}

func buildAnswerPrompt(query string, results []domain.SearchResult, instruction string) string {
	var b strings.Builder

	b.WriteString("Context Documents:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\nDocument %d: %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "Content: %s\n", r.Preview)
		b.WriteString("---\n")
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", query)
	fmt.Fprintf(&b, "\n%s\n\nAnswer: ", strings.TrimSpace(instruction))

	return b.String()
}
