package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"finsight/internal/rag/ragerr"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "ollama" or "gemini"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseURL,omitempty"`
	SystemRole  string  `yaml:"systemRole"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
	Timeout     string  `yaml:"timeout"` // per-call timeout, e.g. "30s"
}

// EmbeddingConfig selects and configures the embedding provider. Dimension
// must match the vector index; a mismatch is a fatal configuration error.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama" or "gemini"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseURL,omitempty"`
	Dimension int    `yaml:"dimension"`
	Timeout   string `yaml:"timeout"`
}

// SplitterConfig configures document chunking, measured in characters.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunkSize"`
	ChunkOverlap int `yaml:"chunkOverlap"`
}

// RetrievalConfig configures the online query path.
type RetrievalConfig struct {
	K           int    `yaml:"k"`           // candidates fetched from the index
	TopN        int    `yaml:"topN"`        // candidates kept after reranking
	TokenBudget int    `yaml:"tokenBudget"` // compressor output budget
	Transform   string `yaml:"transform"`   // "off", "rewrite" or "expand"
}

// RerankerConfig selects the reranking backend. With an empty provider the
// local lexical reranker is used; "cohere" requires COHERE_API_KEY in the
// environment.
type RerankerConfig struct {
	Provider string `yaml:"provider"` // "lexical" or "cohere"
	Model    string `yaml:"model,omitempty"`
}

// MemoryConfig bounds the per-session conversation window.
type MemoryConfig struct {
	TurnCount int `yaml:"turnCount"`
}

// GuardrailConfig lists the forbidden content rules and the refusal text
// returned on a block.
type GuardrailConfig struct {
	Keywords []string `yaml:"keywords"`
	Patterns []string `yaml:"patterns,omitempty"`
	Refusal  string   `yaml:"refusal"`
}

// MilvusConfig configures the optional Milvus vector-store backend.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// VectorStoreConfig selects the vector-index backend and its similarity
// metric. The metric is fixed for the lifetime of the index.
type VectorStoreConfig struct {
	Backend string       `yaml:"backend"` // "sqlite" or "milvus"
	Path    string       `yaml:"path"`    // sqlite database file
	Metric  string       `yaml:"metric"`  // "cosine" or "dot"
	Milvus  MilvusConfig `yaml:"milvus,omitempty"`
}

// RetryConfig bounds retries of external-provider calls.
type RetryConfig struct {
	Attempts  int    `yaml:"attempts"`
	BaseDelay string `yaml:"baseDelay"` // e.g. "200ms"
	MaxDelay  string `yaml:"maxDelay"`  // backoff cap, e.g. "5s"
}

// RateLimitConfig throttles the serving shell.
type RateLimitConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// ServerConfig configures the HTTP serving shell.
type ServerConfig struct {
	Address   string          `yaml:"address"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// AppConfig is the root of the YAML configuration file. It is loaded once
// at startup and treated as immutable afterwards; components receive it by
// value through their constructors.
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Splitter    SplitterConfig    `yaml:"splitter"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Reranker    RerankerConfig    `yaml:"reranker"`
	Memory      MemoryConfig      `yaml:"memory"`
	Guardrail   GuardrailConfig   `yaml:"guardrail"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Retry       RetryConfig       `yaml:"retry"`
	Server      ServerConfig      `yaml:"server"`
}

// LoadConfig reads and parses the YAML configuration file at path, applies
// defaults, and validates it.
func LoadConfig(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %q: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Splitter.ChunkSize == 0 {
		c.Splitter.ChunkSize = 1500
	}
	if c.Retrieval.K == 0 {
		c.Retrieval.K = 10
	}
	if c.Retrieval.TopN == 0 {
		c.Retrieval.TopN = 5
	}
	if c.Retrieval.TokenBudget == 0 {
		c.Retrieval.TokenBudget = 2000
	}
	if c.Retrieval.Transform == "" {
		c.Retrieval.Transform = "off"
	}
	if c.Reranker.Provider == "" {
		c.Reranker.Provider = "lexical"
	}
	if c.Memory.TurnCount == 0 {
		c.Memory.TurnCount = 4
	}
	if c.Guardrail.Refusal == "" {
		c.Guardrail.Refusal = "I can't help with that request."
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = "sqlite"
	}
	if c.VectorStore.Metric == "" {
		c.VectorStore.Metric = "cosine"
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.BaseDelay == "" {
		c.Retry.BaseDelay = "200ms"
	}
	if c.Retry.MaxDelay == "" {
		c.Retry.MaxDelay = "5s"
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "60s"
	}
	if c.Embedding.Timeout == "" {
		c.Embedding.Timeout = "30s"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
}

// Validate fails fast on configuration that cannot produce a working
// pipeline.
func (c *AppConfig) Validate() error {
	switch c.LLM.Provider {
	case "openai", "ollama", "gemini":
	default:
		return ragerr.NewConfigurationError("llm.provider", "unsupported provider %q", c.LLM.Provider)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama", "gemini":
	default:
		return ragerr.NewConfigurationError("embedding.provider", "unsupported provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return ragerr.NewConfigurationError("embedding.dimension", "must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Splitter.ChunkSize <= 0 {
		return ragerr.NewConfigurationError("splitter.chunkSize", "must be positive, got %d", c.Splitter.ChunkSize)
	}
	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		return ragerr.NewConfigurationError("splitter.chunkOverlap",
			"must be in [0, chunkSize), got overlap %d for size %d", c.Splitter.ChunkOverlap, c.Splitter.ChunkSize)
	}
	switch c.VectorStore.Backend {
	case "sqlite":
		if c.VectorStore.Path == "" {
			return ragerr.NewConfigurationError("vectorStore.path", "required for the sqlite backend")
		}
	case "milvus":
		if c.VectorStore.Milvus.Address == "" || c.VectorStore.Milvus.Collection == "" {
			return ragerr.NewConfigurationError("vectorStore.milvus", "address and collection are required")
		}
	default:
		return ragerr.NewConfigurationError("vectorStore.backend", "unsupported backend %q", c.VectorStore.Backend)
	}
	switch c.VectorStore.Metric {
	case "cosine", "dot":
	default:
		return ragerr.NewConfigurationError("vectorStore.metric", "unsupported metric %q", c.VectorStore.Metric)
	}
	switch c.Retrieval.Transform {
	case "off", "rewrite", "expand":
	default:
		return ragerr.NewConfigurationError("retrieval.transform", "unsupported mode %q", c.Retrieval.Transform)
	}
	switch c.Reranker.Provider {
	case "lexical", "cohere":
	default:
		return ragerr.NewConfigurationError("reranker.provider", "unsupported provider %q", c.Reranker.Provider)
	}
	for _, field := range []struct{ name, value string }{
		{"llm.timeout", c.LLM.Timeout},
		{"embedding.timeout", c.Embedding.Timeout},
		{"retry.baseDelay", c.Retry.BaseDelay},
		{"retry.maxDelay", c.Retry.MaxDelay},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return ragerr.NewConfigurationError(field.name, "invalid duration %q", field.value)
		}
	}
	return nil
}

// LLMTimeout returns the parsed per-call LLM timeout.
func (c *AppConfig) LLMTimeout() time.Duration {
	d, _ := time.ParseDuration(c.LLM.Timeout)
	return d
}

// EmbeddingTimeout returns the parsed per-call embedding timeout.
func (c *AppConfig) EmbeddingTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Embedding.Timeout)
	return d
}

// RetryBaseDelay returns the parsed base delay for provider retries.
func (c *AppConfig) RetryBaseDelay() time.Duration {
	d, _ := time.ParseDuration(c.Retry.BaseDelay)
	return d
}

// RetryMaxDelay returns the parsed backoff cap for provider retries.
func (c *AppConfig) RetryMaxDelay() time.Duration {
	d, _ := time.ParseDuration(c.Retry.MaxDelay)
	return d
}
