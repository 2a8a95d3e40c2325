package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure NormaliserRegistry implements the interface.
var _ driven.NormaliserRegistry = (*NormaliserRegistry)(nil)

// MIME types recognised by content sniffing.
const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// NormaliserRegistry picks a normaliser for each document by MIME type,
// then by file extension, then by sniffing the content.
type NormaliserRegistry struct {
	normalisers []driven.Normaliser
}

// NewNormaliserRegistry creates a registry holding the given normalisers.
func NewNormaliserRegistry(normalisers ...driven.Normaliser) *NormaliserRegistry {
	r := &NormaliserRegistry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser. Higher priority normalisers win ties.
func (r *NormaliserRegistry) Register(n driven.Normaliser) {
	if n == nil {
		return
	}
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *NormaliserRegistry) SupportedMIMETypes() []string {
	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			if !seen[m] {
				seen[m] = true
				types = append(types, m)
			}
		}
	}
	sort.Strings(types)
	return types
}

// SupportedExtensions returns all file extensions that can be normalised.
func (r *NormaliserRegistry) SupportedExtensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, n := range r.normalisers {
		for _, e := range n.SupportedExtensions() {
			if !seen[e] {
				seen[e] = true
				exts = append(exts, e)
			}
		}
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a file name has an extension some normaliser handles.
func (r *NormaliserRegistry) Supports(name string) bool {
	return r.byExtension(name) != nil
}

// Normalise extracts the document with the best matching normaliser.
// It returns domain.ErrUnsupportedType when nothing matches and
// domain.ErrEmptyContent when the extracted text is blank.
func (r *NormaliserRegistry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n, mimeType := r.resolve(raw)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Base(raw.URI))
	}
	logger.Debug("Normalising %s as %s", raw.URI, mimeType)

	doc := *raw
	doc.MIMEType = mimeType
	result, err := n.Normalise(ctx, &doc)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Document.Content) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyContent, filepath.Base(raw.URI))
	}
	return result, nil
}

// resolve returns the normaliser for the document and the MIME type it was chosen by.
func (r *NormaliserRegistry) resolve(raw *domain.RawDocument) (driven.Normaliser, string) {
	if raw.MIMEType != "" {
		if n := r.byMIME(raw.MIMEType); n != nil {
			return n, raw.MIMEType
		}
	}
	if n := r.byExtension(raw.URI); n != nil {
		return n, n.SupportedMIMETypes()[0]
	}
	if mimeType := sniff(raw.Content); mimeType != "" {
		if n := r.byMIME(mimeType); n != nil {
			return n, mimeType
		}
	}
	return nil, ""
}

func (r *NormaliserRegistry) byMIME(mimeType string) driven.Normaliser {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			if m == mimeType {
				return n
			}
		}
	}
	return nil
}

func (r *NormaliserRegistry) byExtension(name string) driven.Normaliser {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil
	}
	for _, n := range r.normalisers {
		if len(n.SupportedMIMETypes()) == 0 {
			continue
		}
		for _, e := range n.SupportedExtensions() {
			if e == ext {
				return n
			}
		}
	}
	return nil
}

// sniff guesses a MIME type from leading bytes.
func sniff(content []byte) string {
	switch {
	case bytes.HasPrefix(content, pdfMagic):
		return mimePDF
	case bytes.HasPrefix(content, zipMagic):
		return mimeDOCX
	case len(content) > 0 && utf8.Valid(bytes.TrimPrefix(content, utf8BOM)):
		return mimeText
	default:
		return ""
	}
}
