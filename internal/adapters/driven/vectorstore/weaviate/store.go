// Package weaviate implements the vector store on a Weaviate class.
//
// Vectors are supplied by the caller (the class has no vectorizer). Each
// record is one object whose ID is derived from the record key, so writing
// the same key again replaces the object.
package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/custodia-labs/accord/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Property names on the class.
const (
	propKey      = "key"
	propMetadata = "metadata"
)

// objectNamespace scopes object IDs derived from record keys.
var objectNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e90-a3f1-0c9d8e7b6a54")

// Config holds configuration for the Weaviate store.
type Config struct {
	// Host is the Weaviate host, optionally with a scheme (required).
	Host string

	// Scheme is http or https (default: https, or the scheme in Host).
	Scheme string

	// APIKey authenticates against Weaviate Cloud. Empty means anonymous.
	APIKey string

	// IndexName is turned into the class name (default: contracts → Contracts).
	IndexName string

	// Dimensions is the vector size (default: 384).
	Dimensions int

	// BatchSize is the number of objects per batch request (default: 5).
	BatchSize int
}

// Store is a Weaviate-backed vector store.
type Store struct {
	client    *weaviate.Client
	class     string
	dims      int
	batchSize int
}

// New creates a Weaviate store. It makes no network calls.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: weaviate host is required", domain.ErrConfigMissing)
	}

	scheme, host := splitHost(cfg.Host, cfg.Scheme)
	wcfg := weaviate.Config{Host: host, Scheme: scheme}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
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

	return &Store{
		client:    client,
		class:     ClassName(cfg.IndexName),
		dims:      cfg.Dimensions,
		batchSize: cfg.BatchSize,
	}, nil
}

// ClassName converts an index name into a valid class name:
// "contracts" becomes "Contracts", "my-index" becomes "MyIndex".
func ClassName(index string) string {
	var b strings.Builder
	upper := true
	for _, r := range index {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteString("C")
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Contracts"
	}
	return b.String()
}

// ObjectID returns the deterministic object ID for a record key.
func ObjectID(key string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(objectNamespace, []byte(key)).String())
}

func splitHost(host, scheme string) (string, string) {
	if i := strings.Index(host, "://"); i >= 0 {
		return host[:i], strings.TrimRight(host[i+3:], "/")
	}
	if scheme == "" {
		scheme = "https"
	}
	return scheme, strings.TrimRight(host, "/")
}

func (s *Store) classDefinition() *models.Class {
	return &models.Class{
		Class:           s.class,
		Description:     "Ingested agreements",
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: propKey, DataType: []string{"text"}},
			{Name: propMetadata, DataType: []string{"text"}},
		},
	}
}

// EnsureIndex creates the class when it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: check class %s: %w", domain.ErrVectorStoreUnavailable, s.class, err)
	}
	if exists {
		return nil
	}

	logger.Debug("weaviate: creating class %s", s.class)
	if err := s.client.Schema().ClassCreator().WithClass(s.classDefinition()).Do(ctx); err != nil {
		return fmt.Errorf("%w: create class %s: %w", domain.ErrVectorStoreUnavailable, s.class, err)
	}
	return nil
}

// Upsert writes records in batches. Object IDs derive from record IDs.
func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	return vectorstore.UpsertBatches(ctx, records, s.batchSize, s.dims, func(ctx context.Context, batch []domain.VectorRecord) error {
		objects := make([]*models.Object, 0, len(batch))
		for _, r := range batch {
			obj, err := s.object(r)
			if err != nil {
				return err
			}
			objects = append(objects, obj)
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		return batchErrors(resp)
	})
}

func (s *Store) object(r domain.VectorRecord) (*models.Object, error) {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata for %s: %w", r.ID, err)
	}
	return &models.Object{
		Class: s.class,
		ID:    ObjectID(r.ID),
		Properties: map[string]interface{}{
			propKey:      r.ID,
			propMetadata: string(meta),
		},
		Vector: r.Values,
	}, nil
}

// batchErrors collects per-object failures reported inside a 200 response.
func batchErrors(resp []models.ObjectsGetResponse) error {
	var errs []error
	for _, obj := range resp {
		if obj.Result == nil || obj.Result.Errors == nil {
			continue
		}
		for _, item := range obj.Result.Errors.Error {
			errs = append(errs, fmt.Errorf("object %s: %s", obj.ID, item.Message))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, errors.Join(errs...))
}

// Search runs a nearVector query. Score is 1 - cosine distance.
func (s *Store) Search(ctx context.Context, vec []float32, topK int) ([]domain.Match, error) {
	if len(vec) != s.dims {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(vec), s.dims)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	resp, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(
			graphql.Field{Name: propKey},
			graphql.Field{Name: propMetadata},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
		).
		WithNearVector(nearVector).
		WithLimit(vectorstore.TopK(topK)).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: search failed: %s", domain.ErrVectorStoreUnavailable, resp.Errors[0].Message)
	}
	return parseMatches(resp.Data, s.class), nil
}

// parseMatches reads Get.<class>[] from a GraphQL response.
func parseMatches(data map[string]models.JSONObject, class string) []domain.Match {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return []domain.Match{}
	}
	items, ok := get[class].([]interface{})
	if !ok {
		return []domain.Match{}
	}

	matches := make([]domain.Match, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		m := domain.Match{Metadata: map[string]any{}}
		m.ID, _ = obj[propKey].(string)
		if raw, ok := obj[propMetadata].(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &m.Metadata); err != nil {
				logger.Warn("weaviate: bad metadata on %s: %v", m.ID, err)
			}
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				m.Score = 1 - d
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// Dimensions returns the vector size.
func (s *Store) Dimensions() int {
	return s.dims
}

// Ping checks the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	if !ready {
		return fmt.Errorf("%w: weaviate is not ready", domain.ErrVectorStoreUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
