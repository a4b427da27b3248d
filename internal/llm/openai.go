package llm

import (
	"context"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"finsight/internal/rag/ragerr"
)

// OpenAI is an LLM client for the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI client.
func NewOpenAI(model, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ragerr.NewConfigurationError("llm.openai", "OPENAI_API_KEY is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Complete sends a chat completion request and returns the answer text.
func (o *OpenAI) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, chatRequest(o.model, req))
	if err != nil {
		return "", ragerr.Unavailable(err)
	}
	if len(resp.Choices) == 0 {
		return "", ragerr.Unavailable(errNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}

// chatRequest maps a CompletionRequest onto the OpenAI wire request. The
// API takes temperature by pointer to distinguish 0 from unset, so the
// value is copied to a local before taking its address.
func chatRequest(model string, req *CompletionRequest) openai.ChatCompletionRequest {
	temperature := req.Temperature
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: &temperature,
		MaxTokens:   req.MaxTokens,
	}
}

var _ LLM = (*OpenAI)(nil)
