package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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

func TestNewConfigStore_MissingFileYieldsDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "none", cfg.Embedding.Backend)
	assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 0.3, cfg.Retrieval.MinScore)
}

func TestConfigStore_LoadsExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[storage]
backend = "sqlite"

[embedding]
backend = "openai"
api_key = "sk-test"
model = "text-embedding-3-small"

[retrieval]
chunk_size = 500
top_k = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "openai", cfg.Embedding.Backend)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, 500, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	// Unspecified keys keep their defaults.
	assert.Equal(t, 200, cfg.Retrieval.ChunkOverlap)
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_SaveRoundtrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	store.Config().Storage.Backend = "memory"
	store.Config().Embedding.Model = "mxbai-embed-large"
	require.NoError(t, store.Save())

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "memory", reopened.Config().Storage.Backend)
	assert.Equal(t, "mxbai-embed-large", reopened.Config().Embedding.Model)
}

func TestConfigStore_SaveRestrictsPermissions(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfig_ParamsNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.ChunkSize = -5
	cfg.Retrieval.ChunkOverlap = 5000
	cfg.Retrieval.MinScore = 2.0

	params := cfg.Params()
	assert.Greater(t, params.ChunkSize, 0)
	assert.Less(t, params.ChunkOverlap, params.ChunkSize)
	assert.LessOrEqual(t, params.MinScore, 1.0)
}

func TestConfig_EmbeddingTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.EmbeddingTimeout())

	cfg.Embedding.TimeoutSeconds = 3
	assert.Equal(t, 3*time.Second, cfg.EmbeddingTimeout())

	cfg.Embedding.TimeoutSeconds = -1
	assert.Equal(t, 10*time.Second, cfg.EmbeddingTimeout())
}
