package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_MapsFields(t *testing.T) {
	req := &CompletionRequest{
		System:      "You are a financial analyst.",
		Prompt:      "What was the 2023 net revenue?",
		Temperature: 0.2,
		MaxTokens:   512,
	}

	wire := chatRequest("gpt-4o-mini", req)

	assert.Equal(t, "gpt-4o-mini", wire.Model)
	require.Len(t, wire.Messages, 2)
	assert.Equal(t, req.System, wire.Messages[0].Content)
	assert.Equal(t, req.Prompt, wire.Messages[1].Content)
	assert.Equal(t, 512, wire.MaxTokens)
	require.NotNil(t, wire.Temperature)
	assert.InDelta(t, 0.2, float64(*wire.Temperature), 1e-6)
}

func TestChatRequest_TemperatureCopyIsIndependent(t *testing.T) {
	req := &CompletionRequest{Prompt: "q", Temperature: 0.7}

	wire := chatRequest("gpt-4o-mini", req)
	req.Temperature = 0.1

	require.NotNil(t, wire.Temperature)
	assert.InDelta(t, 0.7, float64(*wire.Temperature), 1e-6)
}
