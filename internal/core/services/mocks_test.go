package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// mockNormaliser implements driven.Normaliser for testing.
type mockNormaliser struct {
	mimeTypes  []string
	extensions []string
	priority   int
	content    string
	err        error
	seen       []*domain.RawDocument
}

func (m *mockNormaliser) SupportedMIMETypes() []string  { return m.mimeTypes }
func (m *mockNormaliser) SupportedExtensions() []string { return m.extensions }
func (m *mockNormaliser) Priority() int                 { return m.priority }

func (m *mockNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	m.seen = append(m.seen, raw)
	if m.err != nil {
		return nil, m.err
	}
	content := m.content
	if content == "" {
		content = string(raw.Content)
	}
	return &driven.NormaliseResult{Document: domain.Document{
		URI:      raw.URI,
		Title:    "title of " + raw.URI,
		Content:  content,
		Metadata: map[string]any{"mime_type": raw.MIMEType},
	}}, nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are derived from the text so identical text embeds identically.
type mockEmbeddingService struct {
	dims     int
	embedErr error
	texts    []string
	pingErr  error
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	v := make([]float32, m.dims)
	for i, r := range text {
		v[i%m.dims] += float32(r % 7)
	}
	v[0] += 1
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.texts = append(m.texts, text)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return m.dims }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return m.pingErr }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockOutcomeEmbedder reports a fixed serving path.
type mockOutcomeEmbedder struct {
	mockEmbeddingService
	path domain.EmbeddingPath
}

func (m *mockOutcomeEmbedder) EmbedWithOutcome(ctx context.Context, text string) (domain.EmbeddingOutcome, error) {
	v, err := m.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingOutcome{}, err
	}
	return domain.EmbeddingOutcome{Vector: v, Path: m.path}, nil
}

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	mu        sync.Mutex
	dims      int
	records   map[string]domain.VectorRecord
	matches   []domain.Match
	upsertErr error
	searchErr error
	pingErr   error
	lastTopK  int
}

func newMockVectorStore(dims int) *mockVectorStore {
	return &mockVectorStore{dims: dims, records: make(map[string]domain.VectorRecord)}
}

func (m *mockVectorStore) EnsureIndex(_ context.Context) error { return nil }

func (m *mockVectorStore) Upsert(_ context.Context, records []domain.VectorRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return len(records), nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, topK int) ([]domain.Match, error) {
	m.lastTopK = topK
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if topK < len(m.matches) {
		return m.matches[:topK], nil
	}
	return m.matches, nil
}

func (m *mockVectorStore) Dimensions() int              { return m.dims }
func (m *mockVectorStore) Ping(_ context.Context) error { return m.pingErr }
func (m *mockVectorStore) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	answer     string
	err        error
	pingErr    error
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return m.pingErr }
func (m *mockLLMService) Close() error                 { return nil }

// mockLedger implements driven.IngestLedger for testing.
type mockLedger struct {
	entries   map[string]domain.LedgerEntry
	recordErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{entries: make(map[string]domain.LedgerEntry)}
}

func (m *mockLedger) Record(_ context.Context, entry domain.LedgerEntry) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries[entry.Key] = entry
	return nil
}

func (m *mockLedger) Get(_ context.Context, key string) (*domain.LedgerEntry, error) {
	e, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *mockLedger) List(_ context.Context, limit int) ([]domain.LedgerEntry, error) {
	out := make([]domain.LedgerEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngestedAt.After(out[j].IngestedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockLedger) HasContent(_ context.Context, key, hash string) (bool, error) {
	e, ok := m.entries[key]
	return ok && e.ContentHash == hash, nil
}

func (m *mockLedger) Close() error { return nil }

// mockPlatform implements driven.DocumentPlatform for testing.
type mockPlatform struct {
	envelopes   []domain.Envelope
	documents   map[string][]domain.EnvelopeDocument
	content     map[string][]byte
	listErr     error
	downloadErr map[string]error
	since       time.Time
	downloads   []string
}

func (m *mockPlatform) ListEnvelopes(_ context.Context, since time.Time) ([]domain.Envelope, error) {
	m.since = since
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.envelopes, nil
}

func (m *mockPlatform) ListDocuments(_ context.Context, envelopeID string) ([]domain.EnvelopeDocument, error) {
	return m.documents[envelopeID], nil
}

func (m *mockPlatform) Download(_ context.Context, envelopeID, documentID string) ([]byte, string, error) {
	id := envelopeID + "/" + documentID
	m.downloads = append(m.downloads, id)
	if err := m.downloadErr[id]; err != nil {
		return nil, "", err
	}
	return m.content[id], "text/plain", nil
}
