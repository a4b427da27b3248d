// Package transform rewrites or expands the user's question before
// retrieval so that colloquial phrasing still finds the right filings.
package transform

import (
	"context"
	"fmt"
	"strings"

	"finsight/internal/llm"
	"finsight/internal/rag/ragerr"
	"finsight/pkg/logger"
)

// Mode selects the transformation strategy.
type Mode string

const (
	// ModeOff passes the question through unchanged.
	ModeOff Mode = "off"
	// ModeRewrite produces a single retrieval-friendly rewrite.
	ModeRewrite Mode = "rewrite"
	// ModeExpand produces several sub-queries covering distinct facets.
	ModeExpand Mode = "expand"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOff, ModeRewrite, ModeExpand:
		return Mode(s), nil
	case "":
		return ModeOff, nil
	default:
		return "", ragerr.NewConfigurationError("retrieval.transform",
			"unsupported mode %q (expected off, rewrite or expand)", s)
	}
}

const rewritePrompt = `Rewrite the following question about financial documents into a single search query.
Keep company names, ticker symbols, fiscal periods and financial terms exactly as written.
Reply with the rewritten query only, no explanation.

Question: %s`

const expandPrompt = `Break the following question about financial documents into 2 to 5 search queries,
each covering one facet of the question. Keep company names, ticker symbols, fiscal periods
and financial terms exactly as written. Reply with one query per line, nothing else.

Question: %s`

const maxSubQueries = 5

// Transformer derives retrieval queries from a user question using the
// configured language model. Transformation is best-effort: when the
// model call fails the original question is used as the only query, so a
// degraded LLM never blocks retrieval.
type Transformer struct {
	log   *logger.Logger
	model llm.LLM
	mode  Mode
}

// New creates a Transformer. The model may be nil when mode is off.
func New(model llm.LLM, mode Mode, log *logger.Logger) *Transformer {
	return &Transformer{log: log, model: model, mode: mode}
}

// Queries returns the retrieval queries for question, always at least one
// and always including a non-empty query.
func (t *Transformer) Queries(ctx context.Context, question string) []string {
	if t.mode == ModeOff || t.model == nil {
		return []string{question}
	}

	prompt := rewritePrompt
	if t.mode == ModeExpand {
		prompt = expandPrompt
	}
	out, err := t.model.Complete(ctx, &llm.CompletionRequest{
		Prompt:      fmt.Sprintf(prompt, question),
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		t.log.WithField("mode", string(t.mode)).Warn(fmt.Sprintf("Query transformation failed, using original question: %v", err))
		return []string{question}
	}

	queries := parseQueries(out)
	if len(queries) == 0 {
		return []string{question}
	}
	if t.mode == ModeRewrite && len(queries) > 1 {
		queries = queries[:1]
	}
	if len(queries) > maxSubQueries {
		queries = queries[:maxSubQueries]
	}
	return queries
}

// parseQueries splits model output into one query per line, dropping
// list markers and empty lines.
func parseQueries(out string) []string {
	var queries []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"`)
		if line != "" {
			queries = append(queries, line)
		}
	}
	return queries
}
