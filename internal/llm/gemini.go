package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"finsight/internal/rag/ragerr"
)

// Gemini is an LLM client for the Google GenAI API.
type Gemini struct {
	client *genai.Client
	name   string
}

// NewGemini creates a new Gemini client.
func NewGemini(model, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ragerr.NewConfigurationError("llm.gemini", "GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, name: model}, nil
}

// Complete generates an answer for the request. Each call configures a
// fresh model handle so that per-request temperature and token limits never
// leak between requests.
func (g *Gemini) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(g.name)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", ragerr.Unavailable(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ragerr.Unavailable(errNoChoices)
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", ragerr.Unavailable(fmt.Errorf("unexpected response part type %T", resp.Candidates[0].Content.Parts[0]))
	}
	return string(text), nil
}

var _ LLM = (*Gemini)(nil)
