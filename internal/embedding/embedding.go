package embedding

import (
	"finsight/internal/config"
	"finsight/internal/rag/ragerr"
)

// NewModel creates the embedding provider selected by cfg. apiKey comes
// from the environment, not the config file.
func NewModel(cfg config.EmbeddingConfig, apiKey string) (Embedding, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIModel(cfg.Model, apiKey, cfg.Dimension)
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL, cfg.Dimension)
	case "gemini":
		return NewGeminiModel(cfg.Model, apiKey, cfg.Dimension)
	default:
		return nil, ragerr.NewConfigurationError("embedding.provider", "unsupported provider %q", cfg.Provider)
	}
}
