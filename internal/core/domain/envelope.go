package domain

import "time"

// Envelope is a DocuSign grouping of documents routed for signature.
// It is a read-only projection of the remote response.
type Envelope struct {
	EnvelopeID   string
	Status       string
	EmailSubject string
	SentDateTime time.Time
	Documents    []EnvelopeDocument
}

// EnvelopeDocument is one document inside an envelope.
type EnvelopeDocument struct {
	EnvelopeID string
	DocumentID string
	Name       string
	Type       string
	URI        string
	Order      int
}

// IsCertificate reports whether the document is the platform's
// generated signing certificate rather than a user document.
func (d EnvelopeDocument) IsCertificate() bool {
	return d.DocumentID == "certificate" || d.Type == "summary"
}

// Key returns the vector store key for the document.
func (d EnvelopeDocument) Key() string {
	return "docusign-" + d.EnvelopeID + "-" + d.DocumentID
}
