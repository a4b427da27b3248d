// Package llm wraps language-model providers behind a single completion
// interface. One implementation exists per concrete provider; selection
// happens once at construction via a config tag.
package llm

import (
	"context"

	"finsight/internal/config"
	"finsight/internal/rag/ragerr"
)

// CompletionRequest carries one model invocation. System is the fixed role
// instruction; Prompt is the fully assembled user prompt.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// LLM is the capability interface for text generation.
type LLM interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// NewClient creates the provider selected by cfg. apiKey comes from the
// environment, not the config file.
func NewClient(cfg config.LLMConfig, apiKey string) (LLM, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.Model, apiKey)
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	case "gemini":
		return NewGemini(cfg.Model, apiKey)
	default:
		return nil, ragerr.NewConfigurationError("llm.provider", "unsupported provider %q", cfg.Provider)
	}
}
