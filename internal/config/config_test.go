package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, "text-embedding-ada-002", cfg.Embedder.Model)
	assert.Equal(t, 1536, cfg.Embedder.Dimension)
	assert.Equal(t, 32, cfg.Embedder.BatchSize)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.APIKeyEnv)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "http://localhost:6333", cfg.Qdrant.URL)
	assert.Equal(t, "company_reports", cfg.Qdrant.Collection)
	assert.Equal(t, 20, cfg.Chat.MaxHistory)
	assert.Equal(t, 5, cfg.Chat.ContextWindow)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunking:
  size: 500
  overlap: 50
embedder:
  model: nomic-embed-text
  dimension: 768
qdrant:
  url: http://qdrant:6333
  collection: reports
chat:
  max_history: 6
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	assert.Equal(t, "http://qdrant:6333", cfg.Qdrant.URL)
	assert.Equal(t, "reports", cfg.Qdrant.Collection)
	assert.Equal(t, 6, cfg.Chat.MaxHistory)
	// unspecified values still get defaults
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 32, cfg.Embedder.BatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunking:
  size: 500
qdrant:
  url: http://from-file:6333
`), 0o644))

	t.Setenv("CHUNK_SIZE", "750")
	t.Setenv("QDRANT_URL", "http://from-env:6333")
	t.Setenv("COLLECTION_NAME", "env_reports")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 750, cfg.Chunking.Size)
	assert.Equal(t, "http://from-env:6333", cfg.Qdrant.URL)
	assert.Equal(t, "env_reports", cfg.Qdrant.Collection)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.BaseURL)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  not yaml ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	original := defaultConfig()
	original.Qdrant.Collection = "saved_reports"
	require.NoError(t, Save(path, original))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved_reports", cfg.Qdrant.Collection)
	assert.Equal(t, original.Chunking, cfg.Chunking)
}
