package domain

import "time"

// IngestItem is the result of ingesting one document.
type IngestItem struct {
	// Name is the filename or remote document name.
	Name string

	// Key is the vector store key, empty if ingestion failed before keying.
	Key string

	// Path is the embedding path used, empty on failure.
	Path EmbeddingPath

	// Skipped is true when the document was unchanged and not re-ingested.
	Skipped bool

	// Err is the failure, nil on success.
	Err error
}

// IngestReport collects per-document results of a batch.
type IngestReport struct {
	Items []IngestItem
}

// Succeeded returns the number of items without an error.
func (r IngestReport) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the items that errored.
func (r IngestReport) Failed() []IngestItem {
	var failed []IngestItem
	for _, it := range r.Items {
		if it.Err != nil {
			failed = append(failed, it)
		}
	}
	return failed
}

// LedgerEntry records a document that was written to the vector store.
type LedgerEntry struct {
	Key         string
	Title       string
	Origin      Origin
	Source      string
	ContentHash string
	Dimensions  int
	IngestedAt  time.Time
}

// ServiceStatus is the health of one external dependency.
type ServiceStatus struct {
	Name   string
	OK     bool
	Detail string
}
