package driven

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// Normaliser extracts plain text from a raw document.
// Each normaliser handles specific MIME types (e.g., PDF, DOCX).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns lower-case file extensions (with dot) it handles.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89.
	// Fallback normalisers return 1-9.
	Priority() int

	// Normalise extracts the document text.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Document is the normalised document with Title and Content populated.
	Document domain.Document
}
