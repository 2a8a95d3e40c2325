package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// IngestService turns files into searchable vector store entries.
type IngestService interface {
	// IngestFile extracts, embeds and stores a single file.
	IngestFile(ctx context.Context, file domain.FileInput) domain.IngestItem

	// IngestFiles ingests files one after another. A failing file is
	// reported in its item and does not stop the others.
	IngestFiles(ctx context.Context, files []domain.FileInput) domain.IngestReport
}

// ImportService pulls documents from the e-signature platform.
type ImportService interface {
	// Import ingests every document of every envelope sent since the given time.
	Import(ctx context.Context, since time.Time) (domain.IngestReport, error)

	// Envelopes lists envelope metadata without ingesting.
	Envelopes(ctx context.Context, since time.Time) ([]domain.Envelope, error)
}
