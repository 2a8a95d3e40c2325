package domain

// RawDocument represents opaque bytes before extraction.
type RawDocument struct {
	// URI is the original location (file path, filename or remote URI).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}
