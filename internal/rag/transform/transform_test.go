package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/llm"
	"finsight/pkg/logger"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (string, error) {
	s.calls++
	return s.response, s.err
}

func newTransformer(model llm.LLM, mode Mode) *Transformer {
	logger.Init(logger.ParseLevel("error"))
	return New(model, mode, logger.New("test", ""))
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"off", "rewrite", "expand", ""} {
		_, err := ParseMode(s)
		assert.NoError(t, err)
	}
	_, err := ParseMode("bogus")
	assert.Error(t, err)
}

func TestQueries_OffModeBypassesModel(t *testing.T) {
	stub := &stubLLM{response: "should not be used"}
	tr := newTransformer(stub, ModeOff)

	queries := tr.Queries(context.Background(), "What was Q4 revenue?")
	assert.Equal(t, []string{"What was Q4 revenue?"}, queries)
	assert.Zero(t, stub.calls)
}

func TestQueries_RewriteReturnsSingleQuery(t *testing.T) {
	stub := &stubLLM{response: "AAPL Q4 2025 revenue\nextra line ignored"}
	tr := newTransformer(stub, ModeRewrite)

	queries := tr.Queries(context.Background(), "how much money did apple make?")
	require.Len(t, queries, 1)
	assert.Equal(t, "AAPL Q4 2025 revenue", queries[0])
	assert.Equal(t, 1, stub.calls)
}

func TestQueries_ExpandParsesLines(t *testing.T) {
	stub := &stubLLM{response: "1. AAPL Q4 revenue\n2. AAPL Q4 net income\n- AAPL services segment growth\n"}
	tr := newTransformer(stub, ModeExpand)

	queries := tr.Queries(context.Background(), "how did apple do last quarter?")
	assert.Equal(t, []string{
		"AAPL Q4 revenue",
		"AAPL Q4 net income",
		"AAPL services segment growth",
	}, queries)
}

func TestQueries_ExpandCapsSubQueries(t *testing.T) {
	stub := &stubLLM{response: "a\nb\nc\nd\ne\nf\ng"}
	tr := newTransformer(stub, ModeExpand)

	queries := tr.Queries(context.Background(), "question")
	assert.Len(t, queries, 5)
}

func TestQueries_FallsBackOnModelFailure(t *testing.T) {
	stub := &stubLLM{err: errors.New("provider down")}
	tr := newTransformer(stub, ModeExpand)

	queries := tr.Queries(context.Background(), "original question")
	assert.Equal(t, []string{"original question"}, queries)
}

func TestQueries_FallsBackOnEmptyOutput(t *testing.T) {
	stub := &stubLLM{response: "\n\n"}
	tr := newTransformer(stub, ModeRewrite)

	queries := tr.Queries(context.Background(), "original question")
	assert.Equal(t, []string{"original question"}, queries)
}
