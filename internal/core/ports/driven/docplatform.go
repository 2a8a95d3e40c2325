package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// DocumentPlatform reads envelopes and documents from the e-signature platform.
// All calls require an authenticated session.
type DocumentPlatform interface {
	// ListEnvelopes lists envelopes changed since the given time.
	// A zero time means the last 30 days.
	ListEnvelopes(ctx context.Context, since time.Time) ([]domain.Envelope, error)

	// ListDocuments lists the documents inside an envelope.
	ListDocuments(ctx context.Context, envelopeID string) ([]domain.EnvelopeDocument, error)

	// Download fetches a document's binary content and its content type.
	Download(ctx context.Context, envelopeID, documentID string) ([]byte, string, error)
}
