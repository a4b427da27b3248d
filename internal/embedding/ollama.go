package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"finsight/internal/rag/ragerr"
)

// OllamaModel is an embedding client for a locally hosted Ollama server.
type OllamaModel struct {
	client    *ollama.Client
	model     string
	dimension int
}

// NewOllamaModel creates a new Ollama embedding client. An empty baseURL
// defaults to the local Ollama address.
func NewOllamaModel(model, baseURL string, dimension int) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, ragerr.NewConfigurationError("embedding.baseURL", "invalid URL %q: %v", baseURL, err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	return &OllamaModel{
		client:    ollama.NewClient(parsedURL, hc),
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed generates the embedding vector for a single text.
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	})
	if err != nil {
		return nil, ragerr.Unavailable(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, ragerr.Unavailable(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}
	for _, v := range resp.Embeddings {
		if len(v) != m.dimension {
			return nil, ragerr.NewConfigurationError("embedding.dimension",
				"model %q returned dimension %d, configured %d", m.model, len(v), m.dimension)
		}
	}
	return resp.Embeddings, nil
}

// Dimension reports the configured vector dimension.
func (m *OllamaModel) Dimension() int {
	return m.dimension
}

var _ Embedding = (*OllamaModel)(nil)
