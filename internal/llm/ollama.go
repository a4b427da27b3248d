package llm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"finsight/internal/rag/ragerr"
)

var errNoChoices = errors.New("model returned no content")

// Ollama is an LLM client for a locally hosted Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates a new Ollama client. An empty baseURL defaults to the
// local Ollama address.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, ragerr.NewConfigurationError("llm.baseURL", "invalid URL %q: %v", baseURL, err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	return &Ollama{
		client: ollama.NewClient(parsedURL, hc),
		model:  model,
	}, nil
}

// Complete generates an answer for the request in a single non-streaming
// call.
func (o *Ollama) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	stream := false
	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:   o.model,
		System:  req.System,
		Prompt:  req.Prompt,
		Stream:  &stream,
		Options: options,
	}, func(resp ollama.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", ragerr.Unavailable(err)
	}
	if sb.Len() == 0 {
		return "", ragerr.Unavailable(errNoChoices)
	}
	return sb.String(), nil
}

var _ LLM = (*Ollama)(nil)
