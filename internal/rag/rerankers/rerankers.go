// Package rerankers re-orders retrieval candidates by relevance to the
// query before they are handed to the compressor.
package rerankers

import (
	"finsight/internal/config"
	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/ragerr"
)

// NewReranker builds the Reranker selected by the configuration.
func NewReranker(cfg *config.AppConfig, apiKey string) (interfaces.Reranker, error) {
	switch cfg.Reranker.Provider {
	case "lexical", "":
		return NewLexicalReranker(), nil
	case "cohere":
		if apiKey == "" {
			return nil, ragerr.NewConfigurationError("reranker.provider", "cohere reranker requires COHERE_API_KEY")
		}
		return NewCohereReranker(apiKey, cfg.Reranker.Model), nil
	default:
		return nil, ragerr.NewConfigurationError("reranker.provider", "unsupported provider %q", cfg.Reranker.Provider)
	}
}
