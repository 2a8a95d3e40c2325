// Package embedding holds helpers shared by the embedding adapters.
package embedding

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// ToFloat32 converts a decoded JSON vector to float32.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// CheckDimensions fails unless v has exactly dims elements.
func CheckDimensions(v []float32, dims int) error {
	if len(v) != dims {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), dims)
	}
	return nil
}

// CheckText rejects empty or whitespace-only input.
func CheckText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	return nil
}
