package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/accord/internal/core/domain"
)

func TestDocumentsCmd_Lists(t *testing.T) {
	rt := setupRuntime(t)
	rt.documents.entries = []domain.LedgerEntry{
		{Key: "upload-1", Title: "Office Lease", Origin: domain.OriginUpload, IngestedAt: time.Now()},
		{Key: "docusign-env-doc", Origin: domain.OriginDocuSign, IngestedAt: time.Now()},
	}

	out, err := executeCommand(t, "documents", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, rt.documents.lastLimit)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Office Lease")
	assert.Contains(t, out, "upload-1")
	assert.Contains(t, out, "docusign")
	assert.Contains(t, out, "N/A")
}

func TestDocumentsCmd_DefaultLimit(t *testing.T) {
	rt := setupRuntime(t)

	out, err := executeCommand(t, "documents")

	require.NoError(t, err)
	assert.Equal(t, 20, rt.documents.lastLimit)
	assert.Contains(t, out, "No documents ingested yet")
}
