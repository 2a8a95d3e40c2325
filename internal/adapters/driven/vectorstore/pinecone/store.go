// Package pinecone implements the vector store over the Pinecone REST API.
//
// The control plane resolves (and if needed creates) a serverless index and
// its data-plane host; the data plane serves upserts and queries.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/accord/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultControllerURL = "https://api.pinecone.io"
	DefaultCloud         = "aws"
	DefaultTimeout       = 30 * time.Second
	APIVersion           = "2024-07"

	readyPollInterval = 2 * time.Second
	readyPollAttempts = 30
)

// Config holds configuration for the Pinecone store.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Environment is the serverless region used when creating the index.
	Environment string

	// Cloud is the serverless cloud provider (default: aws).
	Cloud string

	// ControllerURL is the control-plane base URL.
	ControllerURL string

	// IndexName is the index to use (default: contracts).
	IndexName string

	// Dimensions is the index dimension (default: 384).
	Dimensions int

	// BatchSize is the number of records per upsert call (default: 5).
	BatchSize int

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store is a Pinecone-backed vector store.
type Store struct {
	client     *http.Client
	apiKey     string
	controller string
	index      string
	cloud      string
	region     string
	dims       int
	batchSize  int
	pollEvery  time.Duration

	mu   sync.Mutex
	host string
}

type indexSpec struct {
	Serverless *serverlessSpec `json:"serverless,omitempty"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors []vector `json:"vectors"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// statusError is a non-success response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("pinecone error (status %d): %s", e.code, e.body)
}

// New creates a Pinecone store. It makes no network calls.
func New(cfg Config) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: pinecone API key is required", domain.ErrConfigMissing)
	}
	if cfg.ControllerURL == "" {
		cfg.ControllerURL = DefaultControllerURL
	}
	if cfg.Cloud == "" {
		cfg.Cloud = DefaultCloud
	}
	if cfg.IndexName == "" {
		cfg.IndexName = vectorstore.DefaultIndexName
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = vectorstore.DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = vectorstore.DefaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		controller: strings.TrimRight(cfg.ControllerURL, "/"),
		index:      cfg.IndexName,
		cloud:      cfg.Cloud,
		region:     cfg.Environment,
		dims:       cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		pollEvery:  readyPollInterval,
	}, nil
}

// EnsureIndex creates the index when it does not exist and waits for it
// to become ready. Calling it again is a no-op.
func (s *Store) EnsureIndex(ctx context.Context) error {
	desc, err := s.describe(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("pinecone: creating index %q (%d dims, cosine, %s/%s)", s.index, s.dims, s.cloud, s.region)
		desc, err = s.create(ctx)
	}
	if err != nil {
		return err
	}

	for attempt := 0; !desc.Status.Ready; attempt++ {
		if attempt >= readyPollAttempts {
			return fmt.Errorf("%w: index %q not ready (%s)", domain.ErrVectorStoreUnavailable, s.index, desc.Status.State)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollEvery):
		}
		if desc, err = s.describe(ctx); err != nil {
			return err
		}
	}

	if desc.Dimension != 0 && desc.Dimension != s.dims {
		return fmt.Errorf("%w: index %q has dimension %d, want %d",
			domain.ErrDimensionMismatch, s.index, desc.Dimension, s.dims)
	}
	_, err = s.setHost(desc.Host)
	return err
}

// Upsert writes records in batches, overwriting by ID.
func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	host, err := s.dataHost(ctx)
	if err != nil {
		return 0, err
	}

	return vectorstore.UpsertBatches(ctx, records, s.batchSize, s.dims, func(ctx context.Context, batch []domain.VectorRecord) error {
		req := upsertRequest{Vectors: make([]vector, len(batch))}
		for i, r := range batch {
			req.Vectors[i] = vector{ID: r.ID, Values: r.Values, Metadata: r.Metadata}
		}
		var resp upsertResponse
		if err := s.do(ctx, http.MethodPost, host+"/vectors/upsert", req, &resp); err != nil {
			return err
		}
		logger.Debug("pinecone: upserted %d vectors", resp.UpsertedCount)
		return nil
	})
}

// Search returns the topK nearest records with metadata.
func (s *Store) Search(ctx context.Context, vec []float32, topK int) ([]domain.Match, error) {
	if len(vec) != s.dims {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(vec), s.dims)
	}
	host, err := s.dataHost(ctx)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	req := queryRequest{Vector: vec, TopK: vectorstore.TopK(topK), IncludeMetadata: true}
	if err := s.do(ctx, http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// Dimensions returns the index dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// Ping lists indexes to validate the API key.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, s.controller+"/indexes", nil, nil)
}

// Close releases resources.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) describe(ctx context.Context) (*indexDescription, error) {
	var desc indexDescription
	err := s.do(ctx, http.MethodGet, s.controller+"/indexes/"+s.index, nil, &desc)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: index %q", domain.ErrNotFound, s.index)
	}
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

func (s *Store) create(ctx context.Context) (*indexDescription, error) {
	if s.region == "" {
		return nil, fmt.Errorf("%w: PINECONE_ENVIRONMENT is required to create index %q", domain.ErrConfigMissing, s.index)
	}
	req := createIndexRequest{
		Name:      s.index,
		Dimension: s.dims,
		Metric:    "cosine",
		Spec:      indexSpec{Serverless: &serverlessSpec{Cloud: s.cloud, Region: s.region}},
	}

	var desc indexDescription
	err := s.do(ctx, http.MethodPost, s.controller+"/indexes", req, &desc)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusConflict {
		// Created concurrently by another process.
		return s.describe(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// dataHost returns the data-plane base URL, describing the index on first use.
func (s *Store) dataHost(ctx context.Context) (string, error) {
	s.mu.Lock()
	host := s.host
	s.mu.Unlock()
	if host != "" {
		return host, nil
	}

	desc, err := s.describe(ctx)
	if err != nil {
		return "", err
	}
	if !desc.Status.Ready {
		return "", fmt.Errorf("%w: index %q not ready (%s)", domain.ErrVectorStoreUnavailable, s.index, desc.Status.State)
	}
	return s.setHost(desc.Host)
}

// setHost normalises and stores the data-plane host. An empty host means
// the index cannot serve requests yet.
func (s *Store) setHost(host string) (string, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return "", fmt.Errorf("%w: index %q has no data-plane host yet", domain.ErrVectorStoreUnavailable, s.index)
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	s.mu.Lock()
	s.host = host
	s.mu.Unlock()
	return host, nil
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable,
			&statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
