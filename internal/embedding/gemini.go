package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"finsight/internal/rag/ragerr"
)

// GeminiModel is an embedding client for the Google GenAI API.
type GeminiModel struct {
	model     *genai.EmbeddingModel
	name      string
	dimension int
}

// NewGeminiModel creates a new Gemini embedding client.
func NewGeminiModel(modelName, apiKey string, dimension int) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, ragerr.NewConfigurationError("embedding.gemini", "GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiModel{
		model:     client.EmbeddingModel(modelName),
		name:      modelName,
		dimension: dimension,
	}, nil
}

// Embed generates the embedding vector for a single text.
func (m *GeminiModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *GeminiModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, ragerr.Unavailable(err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, ragerr.Unavailable(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Embeddings)))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if len(emb.Values) != m.dimension {
			return nil, ragerr.NewConfigurationError("embedding.dimension",
				"model %q returned dimension %d, configured %d", m.name, len(emb.Values), m.dimension)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimension reports the configured vector dimension.
func (m *GeminiModel) Dimension() int {
	return m.dimension
}

var _ Embedding = (*GeminiModel)(nil)
