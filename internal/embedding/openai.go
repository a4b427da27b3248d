package embedding

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"finsight/internal/rag/ragerr"
)

// OpenAIModel is an embedding client for the OpenAI API.
type OpenAIModel struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIModel creates a new OpenAI embedding client.
func NewOpenAIModel(modelName, apiKey string, dimension int) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, ragerr.NewConfigurationError("embedding.openai", "OPENAI_API_KEY is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	return &OpenAIModel{
		client:    openai.NewClientWithConfig(cfg),
		model:     modelName,
		dimension: dimension,
	}, nil
}

// Embed generates the embedding vector for a single text.
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *OpenAIModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(m.model),
	}

	resp, err := m.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, ragerr.Unavailable(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, ragerr.Unavailable(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != m.dimension {
			return nil, ragerr.NewConfigurationError("embedding.dimension",
				"model %q returned dimension %d, configured %d", m.model, len(d.Embedding), m.dimension)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimension reports the configured vector dimension.
func (m *OpenAIModel) Dimension() int {
	return m.dimension
}

var _ Embedding = (*OpenAIModel)(nil)
