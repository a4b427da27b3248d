package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/config"
	"finsight/internal/rag/ragerr"
	"finsight/pkg/logger"
)

func newEngine(t *testing.T, cfg config.GuardrailConfig) *Engine {
	t.Helper()
	logger.Init(logger.ParseLevel("error"))
	e, err := New(cfg, logger.New("test", ""))
	require.NoError(t, err)
	return e
}

func TestEngine_KeywordMatchIsCaseInsensitive(t *testing.T) {
	e := newEngine(t, config.GuardrailConfig{Keywords: []string{"insider trading"}})

	res := e.CheckOutbound("Can you give me INSIDER Trading tips?")
	assert.Equal(t, Blocked, res.State)
	assert.Equal(t, "keyword:insider trading", res.Rule)
}

func TestEngine_PatternMatch(t *testing.T) {
	e := newEngine(t, config.GuardrailConfig{Patterns: []string{`\b\d{3}-\d{2}-\d{4}\b`}})

	res := e.CheckInbound("The SSN on file is 123-45-6789.")
	assert.Equal(t, Blocked, res.State)

	res = e.CheckInbound("Revenue grew 12% in Q4.")
	assert.Equal(t, Pass, res.State)
}

func TestEngine_PatternMatchIsCaseInsensitive(t *testing.T) {
	e := newEngine(t, config.GuardrailConfig{Patterns: []string{`pump\s+and\s+dump`}})

	res := e.CheckOutbound("Tell me about a Pump And Dump scheme.")
	assert.Equal(t, Blocked, res.State)
	assert.Equal(t, `pattern:pump\s+and\s+dump`, res.Rule)
}

func TestEngine_PassWhenNoRuleMatches(t *testing.T) {
	e := newEngine(t, config.GuardrailConfig{Keywords: []string{"forbidden"}})

	assert.Equal(t, Pass, e.CheckOutbound("What was the operating margin?").State)
	assert.Equal(t, Pass, e.CheckInbound("The operating margin was 21%.").State)
}

func TestEngine_InvalidPatternIsConfigurationError(t *testing.T) {
	logger.Init(logger.ParseLevel("error"))
	_, err := New(config.GuardrailConfig{Patterns: []string{"("}}, logger.New("test", ""))
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestEngine_Refusal(t *testing.T) {
	e := newEngine(t, config.GuardrailConfig{Refusal: "Request declined."})
	assert.Equal(t, "Request declined.", e.Refusal())

	e = newEngine(t, config.GuardrailConfig{})
	assert.Equal(t, DefaultRefusal, e.Refusal())
}
