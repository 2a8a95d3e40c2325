// Package huggingface provides an embedding service adapter for the
// Hugging Face inference feature-extraction pipeline.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/accord/internal/adapters/driven/embedding"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultURL        = "https://api-inference.huggingface.co/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2"
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 384
)

// Config holds configuration for the Hugging Face embedding service.
type Config struct {
	// Token is the Hugging Face API token (required).
	Token string

	// URL is the feature-extraction endpoint (default: all-MiniLM-L6-v2 pipeline).
	URL string

	// Model is the display name reported by ModelName.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the expected vector size (default: 384).
	Dimensions int
}

// EmbeddingService generates embeddings with the hosted inference API.
type EmbeddingService struct {
	client     *http.Client
	url        string
	token      string
	model      string
	dimensions int
}

// embedRequest is the feature-extraction request body.
// Inputs is a string for a single text or a list for a batch.
type embedRequest struct {
	Inputs  any           `json:"inputs"`
	Options *embedOptions `json:"options,omitempty"`
}

type embedOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// errorResponse is returned with non-success statuses.
type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewEmbeddingService creates a new Hugging Face embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: huggingface API token", domain.ErrConfigMissing)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		token:      cfg.Token,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := embedding.CheckText(text); err != nil {
		return nil, err
	}

	raw, err := s.post(ctx, embedRequest{Inputs: text})
	if err != nil {
		return nil, err
	}

	vec, err := decodeSingle(raw)
	if err != nil {
		return nil, err
	}
	if err := embedding.CheckDimensions(vec, s.dimensions); err != nil {
		return nil, fmt.Errorf("huggingface: %w", err)
	}
	return vec, nil
}

// EmbedBatch sends all texts in one request and waits for a cold model to load.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, text := range texts {
		if err := embedding.CheckText(text); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}

	raw, err := s.post(ctx, embedRequest{Inputs: texts, Options: &embedOptions{WaitForModel: true}})
	if err != nil {
		return nil, err
	}

	vecs, err := decodeBatch(raw)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("huggingface: got %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if err := embedding.CheckDimensions(v, s.dimensions); err != nil {
			return nil, fmt.Errorf("huggingface: text %d: %w", i, err)
		}
	}
	return vecs, nil
}

// post sends the request and returns the raw JSON body of a 200 response.
func (s *EmbeddingService) post(ctx context.Context, body embedRequest) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: invalid Hugging Face token", domain.ErrAuthInvalid)
	case resp.StatusCode != http.StatusOK:
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%w: huggingface error (status %d): %s", domain.ErrRemoteStatus, resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("%w: huggingface error (status %d): %s", domain.ErrRemoteStatus, resp.StatusCode, string(data))
	}
	return data, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short probe text; the endpoint has no cheaper health call.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
