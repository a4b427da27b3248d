// Package guardrail screens the text sent to and received from the
// language model against a configured content policy.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"

	"finsight/internal/config"
	"finsight/internal/rag/ragerr"
	"finsight/pkg/logger"
)

// State is the outcome of a policy check.
type State string

const (
	// Pass means the text violated no rule.
	Pass State = "pass"
	// Blocked means at least one rule matched.
	Blocked State = "blocked"
)

// DefaultRefusal is returned to the user when a check blocks, unless the
// configuration overrides it.
const DefaultRefusal = "I can't help with that request."

// Result reports a check outcome and, when blocked, the rule that fired.
type Result struct {
	State State
	Rule  string
}

// Engine applies the content policy on both sides of the model call:
// outbound on the assembled prompt before the model is invoked, inbound
// on the model's answer before it reaches the user. Rules are shared
// between the two directions.
type Engine struct {
	log      *logger.Logger
	keywords []string
	patterns []pattern
	refusal  string
}

// pattern keeps the configured source next to its compiled form so a
// blocked result can name the rule as written in the policy.
type pattern struct {
	source string
	re     *regexp.Regexp
}

// New compiles the policy. Keyword and pattern matching are both
// case-insensitive; an invalid pattern is a fatal configuration error.
func New(cfg config.GuardrailConfig, log *logger.Logger) (*Engine, error) {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	patterns := make([]pattern, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, ragerr.NewConfigurationError("guardrail.patterns", "invalid pattern %q: %v", p, err)
		}
		patterns = append(patterns, pattern{source: p, re: re})
	}

	refusal := cfg.Refusal
	if refusal == "" {
		refusal = DefaultRefusal
	}
	return &Engine{log: log, keywords: keywords, patterns: patterns, refusal: refusal}, nil
}

// Refusal is the canned answer for blocked requests.
func (e *Engine) Refusal() string {
	return e.refusal
}

// CheckOutbound screens the prompt about to be sent to the model.
func (e *Engine) CheckOutbound(prompt string) Result {
	return e.check("outbound", prompt)
}

// CheckInbound screens the model's answer before it is returned.
func (e *Engine) CheckInbound(answer string) Result {
	return e.check("inbound", answer)
}

func (e *Engine) check(direction, text string) Result {
	lowered := strings.ToLower(text)
	for _, kw := range e.keywords {
		if strings.Contains(lowered, kw) {
			e.log.WithPayload(map[string]interface{}{
				"direction": direction,
				"rule":      fmt.Sprintf("keyword:%s", kw),
			}).Warn("Guardrail blocked content")
			return Result{State: Blocked, Rule: "keyword:" + kw}
		}
	}
	for _, p := range e.patterns {
		if p.re.MatchString(text) {
			e.log.WithPayload(map[string]interface{}{
				"direction": direction,
				"rule":      fmt.Sprintf("pattern:%s", p.source),
			}).Warn("Guardrail blocked content")
			return Result{State: Blocked, Rule: "pattern:" + p.source}
		}
	}
	return Result{State: Pass}
}
