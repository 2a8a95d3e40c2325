package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService pulls envelope documents from the e-signature platform
// and hands them to the ingest pipeline.
type ImportService struct {
	platform driven.DocumentPlatform
	ingest   *IngestService
}

// NewImportService creates a new import service.
func NewImportService(platform driven.DocumentPlatform, ingest *IngestService) *ImportService {
	return &ImportService{platform: platform, ingest: ingest}
}

// Envelopes lists envelope metadata without ingesting.
func (s *ImportService) Envelopes(ctx context.Context, since time.Time) ([]domain.Envelope, error) {
	envelopes, err := s.platform.ListEnvelopes(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list envelopes: %w", err)
	}
	return envelopes, nil
}

// Import ingests every document of every envelope since the given time.
// Failures are isolated per document; an authentication failure aborts
// the import since every later call would fail the same way.
func (s *ImportService) Import(ctx context.Context, since time.Time) (domain.IngestReport, error) {
	logger.Section("DocuSign Import")

	var report domain.IngestReport
	envelopes, err := s.Envelopes(ctx, since)
	if err != nil {
		return report, err
	}
	logger.Info("Found %d envelopes", len(envelopes))

	for _, env := range envelopes {
		docs := env.Documents
		if len(docs) == 0 {
			docs, err = s.platform.ListDocuments(ctx, env.EnvelopeID)
			if err != nil {
				if IsAuthError(err) {
					return report, err
				}
				report.Items = append(report.Items, domain.IngestItem{
					Name: env.EnvelopeID,
					Err:  fmt.Errorf("list documents of %s: %w", env.EnvelopeID, err),
				})
				continue
			}
		}

		for _, doc := range docs {
			if doc.EnvelopeID == "" {
				doc.EnvelopeID = env.EnvelopeID
			}
			if doc.IsCertificate() {
				logger.Debug("Skipping certificate of envelope %s", env.EnvelopeID)
				continue
			}

			item, err := s.importDocument(ctx, env, doc)
			if err != nil {
				return report, err
			}
			report.Items = append(report.Items, item)
		}
	}

	logger.Info("Imported %d of %d documents", report.Succeeded(), len(report.Items))
	return report, nil
}

func (s *ImportService) importDocument(
	ctx context.Context, env domain.Envelope, doc domain.EnvelopeDocument,
) (domain.IngestItem, error) {
	content, contentType, err := s.platform.Download(ctx, doc.EnvelopeID, doc.DocumentID)
	if err != nil {
		if IsAuthError(err) {
			return domain.IngestItem{}, err
		}
		return domain.IngestItem{
			Name: doc.Name,
			Key:  doc.Key(),
			Err:  fmt.Errorf("download %s: %w", doc.Name, err),
		}, nil
	}

	return s.ingest.ingest(ctx, ingestInput{
		name:     doc.Name,
		key:      doc.Key(),
		title:    doc.Name,
		origin:   domain.OriginDocuSign,
		source:   fmt.Sprintf("docusign://envelopes/%s/documents/%s", doc.EnvelopeID, doc.DocumentID),
		mimeType: contentType,
		content:  content,
		metadata: map[string]any{
			"envelope_id":   doc.EnvelopeID,
			"document_id":   doc.DocumentID,
			"email_subject": env.EmailSubject,
		},
	}), nil
}
