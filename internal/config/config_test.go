package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "absent.toml"))
	for _, key := range []string{"GEMINI_API_KEY", "LLM_API_KEY", "OPENWEATHER_API_KEY", "QDRANT_URL", "PDFS_DIR", "VECTOR_BACKEND"} {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_MissingGenerationKeyIsFatal(t *testing.T) {
	isolate(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoad_MissingWeatherKeyIsNotFatal(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Empty(t, cfg.Weather.APIKey)
	assert.Equal(t, "pdf_collection", cfg.VectorStore.Collection)
	assert.Equal(t, 400, cfg.RAG.ChunkWords)
	assert.Equal(t, 80, cfg.RAG.OverlapWords)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, "pdfs", cfg.App.DocumentsDir)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9090
documents_dir = "from-file"

[llm]
api_key = "file-key"

[rag]
top_k = 7
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PDFS_DIR", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "from-env", cfg.App.DocumentsDir)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 7, cfg.RAG.TopK)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.LLM.APIKey = "k"
		return cfg
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.RAG.ChunkWords, cfg.RAG.OverlapWords = 50, 50
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.VectorStore.Backend = "pinecone"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LLM.Provider = "mystery"
	assert.Error(t, cfg.Validate())
}

func TestQdrantEndpoint(t *testing.T) {
	cfg := defaultConfig()

	host, port, tls, err := cfg.QdrantEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 6334, port)
	assert.False(t, tls)

	cfg.VectorStore.QdrantURL = "https://abc.cloud.qdrant.io:6333"
	host, _, tls, err = cfg.QdrantEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "abc.cloud.qdrant.io", host)
	assert.True(t, tls)

	cfg.VectorStore.QdrantURL = "qdrant:6333"
	host, _, _, err = cfg.QdrantEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "qdrant", host)
}
