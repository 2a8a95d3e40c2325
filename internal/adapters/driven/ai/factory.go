// Package ai provides factory functions for creating the embedding,
// vector store and answer generator adapters from configuration.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/accord/internal/adapters/driven/embedding/fallback"
	"github.com/custodia-labs/accord/internal/adapters/driven/embedding/huggingface"
	ollamaembed "github.com/custodia-labs/accord/internal/adapters/driven/embedding/ollama"
	geminillm "github.com/custodia-labs/accord/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/accord/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/accord/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/accord/internal/adapters/driven/vectorstore/badger"
	"github.com/custodia-labs/accord/internal/adapters/driven/vectorstore/pinecone"
	"github.com/custodia-labs/accord/internal/adapters/driven/vectorstore/weaviate"
	"github.com/custodia-labs/accord/internal/config"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// CreateEmbeddingService builds the Hugging Face embedder wrapped in the
// fallback strategy. The local Ollama model is the fallback unless
// disabled in configuration.
func CreateEmbeddingService(cfg config.Embedding) (*fallback.Embedder, error) {
	primary, err := huggingface.NewEmbeddingService(huggingface.Config{
		Token:      cfg.HFToken,
		URL:        cfg.HFURL,
		Timeout:    cfg.Timeout,
		Dimensions: cfg.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	var secondary driven.EmbeddingService
	if cfg.Fallback {
		secondary = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.OllamaURL,
			Model:      cfg.OllamaModel,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimensions,
		})
	}

	return fallback.New(primary, secondary)
}

// CreateVectorStore builds the configured vector store backend.
func CreateVectorStore(cfg config.Vector, dimensions int) (driven.VectorStore, error) {
	switch cfg.Backend {
	case config.BackendPinecone:
		store, err := pinecone.New(pinecone.Config{
			APIKey:        cfg.PineconeKey,
			Environment:   cfg.PineconeEnvironment,
			Cloud:         cfg.PineconeCloud,
			ControllerURL: cfg.PineconeControllerURL,
			IndexName:     cfg.IndexName,
			Dimensions:    dimensions,
			BatchSize:     cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendWeaviate:
		store, err := weaviate.New(weaviate.Config{
			Host:       cfg.WeaviateHost,
			Scheme:     cfg.WeaviateScheme,
			APIKey:     cfg.WeaviateAPIKey,
			IndexName:  cfg.IndexName,
			Dimensions: dimensions,
			BatchSize:  cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendBadger:
		store, err := badger.Open(badger.Config{
			Path:       cfg.BadgerPath,
			Dimensions: dimensions,
			BatchSize:  cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Backend)
	}
}

// CreateLLMService builds the configured answer generator.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, cfg *config.Config) (driven.LLMService, error) {
	if !cfg.AnswerConfigured() {
		return nil, nil
	}

	switch cfg.Answer.Provider {
	case config.ProviderGemini:
		llm, err := geminillm.NewLLMService(ctx, geminillm.LLMConfig{
			APIKey: cfg.Answer.GeminiKey,
			Model:  cfg.Answer.GeminiModel,
		})
		if err != nil {
			return nil, err
		}
		return llm, nil

	case config.ProviderOpenAI:
		llm, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: cfg.Answer.OpenAIKey,
			Model:  cfg.Answer.OpenAIModel,
		})
		if err != nil {
			return nil, err
		}
		return llm, nil

	case config.ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.Answer.OllamaURL,
			Model:   cfg.Answer.OllamaModel,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Answer.Provider)
	}
}

// Services holds the adapters a search or ingest command needs.
type Services struct {
	Embedding   *fallback.Embedder
	VectorStore driven.VectorStore
	LLMService  driven.LLMService // nil when no generator is configured.
}

// Init builds every adapter the configuration allows. withLLM also builds
// the answer generator; a generator that fails to build is reported as
// an error only when withLLM is set.
func Init(ctx context.Context, cfg *config.Config, withLLM bool) (*Services, error) {
	if err := cfg.Require(config.GroupEmbedding, config.GroupVector); err != nil {
		return nil, err
	}

	embedder, err := CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	store, err := CreateVectorStore(cfg.Vector, embedder.Dimensions())
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("vector store: %w", err)
	}

	svc := &Services{Embedding: embedder, VectorStore: store}
	if withLLM {
		llm, err := CreateLLMService(ctx, cfg)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("answer generator: %w", err)
		}
		svc.LLMService = llm
	}
	return svc, nil
}

// Close releases all resources held by Services.
func (s *Services) Close() error {
	var errs []error
	if s.Embedding != nil {
		errs = append(errs, s.Embedding.Close())
	}
	if s.VectorStore != nil {
		errs = append(errs, s.VectorStore.Close())
	}
	if s.LLMService != nil {
		errs = append(errs, s.LLMService.Close())
	}
	return errors.Join(errs...)
}
