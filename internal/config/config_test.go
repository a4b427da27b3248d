package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/rag/ragerr"
)

const validYAML = `
app:
  name: finsight
llm:
  provider: openai
  model: gpt-4o-mini
  temperature: 0.2
embedding:
  provider: openai
  model: text-embedding-3-small
  dimension: 1536
splitter:
  chunkSize: 500
  chunkOverlap: 100
vectorStore:
  backend: sqlite
  path: data/index.db
guardrail:
  keywords: [forbidden]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 10, cfg.Retrieval.K)
	assert.Equal(t, "off", cfg.Retrieval.Transform)
	assert.Equal(t, "lexical", cfg.Reranker.Provider)
	assert.Equal(t, "cosine", cfg.VectorStore.Metric)
	assert.Equal(t, 4, cfg.Memory.TurnCount)
	assert.NotEmpty(t, cfg.Guardrail.Refusal)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Positive(t, cfg.LLMTimeout())
	assert.Positive(t, cfg.EmbeddingTimeout())
	assert.Positive(t, cfg.RetryBaseDelay())
	assert.Positive(t, cfg.RetryMaxDelay())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownProvider(t *testing.T) {
	yaml := `
llm:
  provider: telepathy
embedding:
  provider: openai
  dimension: 8
vectorStore:
  backend: sqlite
  path: x.db
`
	_, err := LoadConfig(writeConfig(t, yaml))
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestLoadConfig_RejectsOverlapNotBelowChunkSize(t *testing.T) {
	yaml := `
llm:
  provider: openai
embedding:
  provider: openai
  dimension: 8
splitter:
  chunkSize: 100
  chunkOverlap: 100
vectorStore:
  backend: sqlite
  path: x.db
`
	_, err := LoadConfig(writeConfig(t, yaml))
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestLoadConfig_RejectsMissingDimension(t *testing.T) {
	yaml := `
llm:
  provider: openai
embedding:
  provider: openai
vectorStore:
  backend: sqlite
  path: x.db
`
	_, err := LoadConfig(writeConfig(t, yaml))
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestLoadConfig_RejectsBadDuration(t *testing.T) {
	yaml := validYAML + `
retry:
  baseDelay: soon
`
	_, err := LoadConfig(writeConfig(t, yaml))
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestLoadConfig_MilvusBackendRequiresAddress(t *testing.T) {
	yaml := `
llm:
  provider: openai
embedding:
  provider: openai
  dimension: 8
vectorStore:
  backend: milvus
`
	_, err := LoadConfig(writeConfig(t, yaml))
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}
