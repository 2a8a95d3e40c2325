package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultPreviewLength is the preview size in runes.
const DefaultPreviewLength = 500

// uploadKeyLength is the number of hex characters kept from the filename hash.
const uploadKeyLength = 32

// IngestService extracts, embeds and stores documents.
type IngestService struct {
	registry      driven.NormaliserRegistry
	embedder      driven.EmbeddingService
	store         driven.VectorStore
	ledger        driven.IngestLedger
	previewLength int
	skipUnchanged bool
	now           func() time.Time
}

// NewIngestService creates a new ingest service.
// If embedder also implements driven.OutcomeEmbedder, items report the
// embedding path that served them.
func NewIngestService(
	registry driven.NormaliserRegistry,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
) *IngestService {
	return &IngestService{
		registry:      registry,
		embedder:      embedder,
		store:         store,
		previewLength: DefaultPreviewLength,
		now:           time.Now,
	}
}

// SetLedger sets the optional ingest ledger.
func (s *IngestService) SetLedger(ledger driven.IngestLedger) {
	s.ledger = ledger
}

// SetPreviewLength sets the preview size in runes. Non-positive values are ignored.
func (s *IngestService) SetPreviewLength(n int) {
	if n > 0 {
		s.previewLength = n
	}
}

// SetSkipUnchanged makes ingestion skip documents whose content hash the
// ledger already holds under the same key.
func (s *IngestService) SetSkipUnchanged(skip bool) {
	s.skipUnchanged = skip
}

// IngestFile extracts, embeds and stores a single uploaded file.
func (s *IngestService) IngestFile(ctx context.Context, file domain.FileInput) domain.IngestItem {
	return s.ingest(ctx, ingestInput{
		name:    file.Name,
		key:     UploadKey(file.Name),
		origin:  domain.OriginUpload,
		source:  file.Name,
		content: file.Content,
	})
}

// IngestFiles ingests files one after another.
func (s *IngestService) IngestFiles(ctx context.Context, files []domain.FileInput) domain.IngestReport {
	logger.Section("Ingest")
	logger.Info("Ingesting %d files", len(files))

	report := domain.IngestReport{Items: make([]domain.IngestItem, 0, len(files))}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			report.Items = append(report.Items, domain.IngestItem{Name: f.Name, Err: err})
			continue
		}
		report.Items = append(report.Items, s.IngestFile(ctx, f))
	}

	logger.Info("Ingested %d of %d files", report.Succeeded(), len(files))
	return report
}

// ingestInput is one document on its way into the store.
type ingestInput struct {
	name     string
	key      string
	title    string
	origin   domain.Origin
	source   string
	mimeType string
	content  []byte
	metadata map[string]any
}

func (s *IngestService) ingest(ctx context.Context, in ingestInput) domain.IngestItem {
	item := domain.IngestItem{Name: in.name, Key: in.key}
	logger.Debug("Ingest %s as %s", in.name, in.key)

	hash := ContentHash(in.content)
	if s.skipUnchanged && s.ledger != nil {
		unchanged, err := s.ledger.HasContent(ctx, in.key, hash)
		switch {
		case err != nil:
			logger.Warn("Ledger lookup for %s failed: %v", in.key, err)
		case unchanged:
			logger.Info("Skipping unchanged %s", in.name)
			item.Skipped = true
			return item
		}
	}

	result, err := s.registry.Normalise(ctx, &domain.RawDocument{
		URI:      in.name,
		MIMEType: in.mimeType,
		Content:  in.content,
		Metadata: in.metadata,
	})
	if err != nil {
		item.Err = fmt.Errorf("extract %s: %w", in.name, err)
		logger.Warn("%v", item.Err)
		return item
	}

	doc := result.Document
	doc.ID = in.key
	doc.Origin = in.origin
	doc.URI = in.source
	if in.title != "" {
		doc.Title = in.title
	}
	if doc.Title == "" {
		doc.Title = filepath.Base(in.name)
	}
	doc.Preview = Preview(doc.Content, s.previewLength)

	vector, path, err := s.embed(ctx, doc.Content)
	if err != nil {
		item.Err = fmt.Errorf("embed %s: %w", in.name, err)
		logger.Warn("%v", item.Err)
		return item
	}
	doc.Vector = vector
	doc.IngestedAt = s.now().UTC()

	if _, err := s.store.Upsert(ctx, []domain.VectorRecord{doc.Record()}); err != nil {
		item.Err = fmt.Errorf("store %s: %w", in.name, err)
		logger.Warn("%v", item.Err)
		return item
	}
	item.Path = path

	if s.ledger != nil {
		entry := domain.LedgerEntry{
			Key:         doc.ID,
			Title:       doc.Title,
			Origin:      doc.Origin,
			Source:      doc.URI,
			ContentHash: hash,
			Dimensions:  len(vector),
			IngestedAt:  doc.IngestedAt,
		}
		if err := s.ledger.Record(ctx, entry); err != nil {
			logger.Warn("Ledger write for %s failed: %v", doc.ID, err)
		}
	}

	logger.Debug("Stored %s (%d dims, %s path)", doc.ID, len(vector), path)
	return item
}

// embed returns the vector and the path that served it. Plain services
// always report the primary path.
func (s *IngestService) embed(ctx context.Context, text string) ([]float32, domain.EmbeddingPath, error) {
	if oe, ok := s.embedder.(driven.OutcomeEmbedder); ok {
		outcome, err := oe.EmbedWithOutcome(ctx, text)
		if err != nil {
			return nil, "", err
		}
		if outcome.PrimaryErr != nil {
			logger.Warn("Primary embedding failed, used fallback: %v", outcome.PrimaryErr)
		}
		return outcome.Vector, outcome.Path, nil
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, "", err
		}
		return nil, "", errors.Join(domain.ErrEmbeddingUnavailable, err)
	}
	return vector, domain.EmbeddingPrimary, nil
}

// UploadKey returns the vector store key for an uploaded file name.
func UploadKey(name string) string {
	sum := sha256.Sum256([]byte(filepath.Base(name)))
	return "upload-" + hex.EncodeToString(sum[:])[:uploadKeyLength]
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Preview collapses whitespace and keeps the first n runes, adding "..."
// when the text was cut.
func Preview(text string, n int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(collapsed) <= n {
		return collapsed
	}
	runes := []rune(collapsed)
	return strings.TrimRight(string(runes[:n]), " ") + "..."
}
