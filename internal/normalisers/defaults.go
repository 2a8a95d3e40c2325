package normalisers

import (
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/normalisers/docx"
	"github.com/custodia-labs/accord/internal/normalisers/pdf"
	"github.com/custodia-labs/accord/internal/normalisers/plaintext"
)

// Defaults returns the built-in normalisers.
// Call this during application initialisation to fill the registry.
func Defaults() []driven.Normaliser {
	return []driven.Normaliser{
		pdf.New(),
		docx.New(),
		plaintext.New(),
	}
}
