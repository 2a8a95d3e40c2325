package domain

import "time"

// Origin identifies where a document came from.
type Origin string

const (
	// OriginUpload is a file supplied by the user.
	OriginUpload Origin = "upload"

	// OriginDocuSign is a document fetched from a DocuSign envelope.
	OriginDocuSign Origin = "docusign"
)

// Metadata keys written alongside every vector.
const (
	MetaTitle      = "title"
	MetaPreview    = "preview"
	MetaOrigin     = "origin"
	MetaSource     = "source"
	MetaIngestedAt = "ingested_at"
)

// Document represents an ingested agreement.
// It is immutable once stored; re-ingesting overwrites the entry by ID.
type Document struct {
	// ID is the vector store key.
	// Derived from a filename hash or a prefixed remote document ID.
	ID string

	// Title is the human-readable title.
	Title string

	// Origin is upload or docusign.
	Origin Origin

	// URI is the original location (file path or remote URI).
	URI string

	// Content is the full extracted text.
	Content string

	// Preview is a short, truncated form of Content for display.
	Preview string

	// Vector is the embedding of Content.
	Vector []float32

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document was written to the store.
	IngestedAt time.Time
}

// Record builds the vector store record for the document.
func (d *Document) Record() VectorRecord {
	meta := make(map[string]any, len(d.Metadata)+5)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[MetaTitle] = d.Title
	meta[MetaPreview] = d.Preview
	meta[MetaOrigin] = string(d.Origin)
	if d.URI != "" {
		meta[MetaSource] = d.URI
	}
	if !d.IngestedAt.IsZero() {
		meta[MetaIngestedAt] = d.IngestedAt.UTC().Format(time.RFC3339)
	}
	return VectorRecord{ID: d.ID, Values: d.Vector, Metadata: meta}
}

// FileInput is a named blob handed to the ingestion pipeline.
type FileInput struct {
	// Name is the filename, used for format detection and the document key.
	Name string

	// Content is the raw bytes.
	Content []byte
}
