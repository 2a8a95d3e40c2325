package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func withTool(n *Normaliser) *Normaliser {
	n.lookPath = func(string) (string, error) { return "/usr/bin/pdftotext", nil }
	return n
}

func withoutTool(n *Normaliser) *Normaliser {
	n.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	return n
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupported(t *testing.T) {
	normaliser := New()
	assert.Equal(t, []string{"application/pdf"}, normaliser.SupportedMIMETypes())
	assert.Equal(t, []string{".pdf"}, normaliser.SupportedExtensions())
	assert.Equal(t, 50, normaliser.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		uri      string
		expected string
	}{
		{
			name:     "first line as title",
			content:  "Document Title\n\nSome content here.",
			uri:      "/doc.pdf",
			expected: "Document Title",
		},
		{
			name:     "skip empty lines",
			content:  "\n\n\nActual Title\nContent",
			uri:      "/doc.pdf",
			expected: "Actual Title",
		},
		{
			name:     "fallback to filename",
			content:  "",
			uri:      "/path/to/my_document.pdf",
			expected: "my document",
		},
		{
			name:     "skip very long first line",
			content:  string(make([]byte, 250)) + "\nShort Title\nContent",
			uri:      "/doc.pdf",
			expected: "Short Title",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.content, tc.uri))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("test output")}
	normaliser := NewWithRunner(runner)
	require.NotNil(t, normaliser)
	assert.Equal(t, runner, normaliser.runner)
}

func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Master Services Agreement\n\nThis agreement covers quarterly revenue.\n")}
	normaliser := withTool(NewWithRunner(runner))

	raw := &domain.RawDocument{
		URI:      "/path/to/msa.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
		Metadata: map[string]any{"envelope_id": "env-1"},
	}

	result, err := normaliser.Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "/path/to/msa.pdf", doc.URI)
	assert.Equal(t, "Master Services Agreement", doc.Title)
	assert.Contains(t, doc.Content, "quarterly revenue")
	assert.Equal(t, "application/pdf", doc.Metadata["mime_type"])
	assert.Equal(t, "pdf", doc.Metadata["format"])
	assert.Equal(t, ExtractorPDFToText, doc.Metadata["extractor"])
	assert.Equal(t, "env-1", doc.Metadata["envelope_id"])
	assert.NotContains(t, raw.Metadata, "format", "input metadata untouched")

	assert.Equal(t, "pdftotext", runner.name)
	require.Len(t, runner.args, 5)
	assert.Equal(t, "-", runner.args[4])
}

func TestNormalise_BothExtractorsFail(t *testing.T) {
	tests := []struct {
		name       string
		normaliser *Normaliser
	}{
		{"tool crashes", withTool(NewWithRunner(&mockRunner{err: errors.New("pdftotext crashed")}))},
		{"tool returns nothing", withTool(NewWithRunner(&mockRunner{output: []byte("  \n")}))},
		{"tool missing", withoutTool(NewWithRunner(&mockRunner{}))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawDocument{URI: "/broken.pdf", Content: []byte("not a pdf at all")}
			result, err := tc.normaliser.Normalise(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrExtractionFailed)
			assert.Nil(t, result)
		})
	}
}

func TestExtractWithGo_Garbage(t *testing.T) {
	_, err := extractWithGo([]byte{0x00, 0x01, 0x02})
	assert.Error(t, err)

	_, err = extractWithGo(nil)
	assert.Error(t, err)
}

func TestCopyMetadata(t *testing.T) {
	assert.Nil(t, copyMetadata(nil))

	src := map[string]any{"key1": "value1", "key2": 42}
	dst := copyMetadata(src)
	assert.Equal(t, src, dst)
	dst["key1"] = "changed"
	assert.Equal(t, "value1", src["key1"])
}

// Integration test - only runs if pdftotext is available.
func TestCheckAvailable_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		assert.ErrorIs(t, err, ErrPDFToolNotFound)
		t.Skip("pdftotext not available")
	}
}
