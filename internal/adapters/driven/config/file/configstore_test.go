package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[docusign]
client_id = "integration-key"
redirect_uri = "http://127.0.0.1:8765/callback"

[vector]
backend = "badger"
batch_size = 10

[embedding]
fallback = false
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "integration-key", store.GetString("docusign.client_id"))
	assert.Equal(t, "badger", store.GetString("vector.backend"))
	assert.Equal(t, 10, store.GetInt("vector.batch_size"))
	assert.False(t, store.GetBool("embedding.fallback"))
	_, ok := store.Get("embedding.fallback")
	assert.True(t, ok)
}

func TestConfigStore_TypeMismatchReturnsZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("vector.backend", "pinecone"))

	assert.Equal(t, 0, store.GetInt("vector.backend"))
	assert.False(t, store.GetBool("vector.backend"))
	assert.Equal(t, "", store.GetString("missing.key"))
}

func TestConfigStore_SetPersistsAsTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("pinecone.environment", "us-east-1"))
	require.NoError(t, store.Set("vector.top_k", 7))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[pinecone]")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", reopened.GetString("pinecone.environment"))
	assert.Equal(t, 7, reopened.GetInt("vector.top_k"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("answer.provider", "gemini"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestUnflatten(t *testing.T) {
	out := unflatten(map[string]any{"a.b.c": 1, "a.d": "x", "top": true})

	a, ok := out["a"].(map[string]any)
	require.True(t, ok)
	b, ok := a["b"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, b["c"])
	assert.Equal(t, "x", a["d"])
	assert.Equal(t, true, out["top"])
}
