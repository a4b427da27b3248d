// Package service exposes the question-answering entry point consumed by
// the HTTP shell and the CLI. It wires memory, guardrails, retrieval and
// the language model into one synchronous call.
package service

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/llm"
	"finsight/internal/rag/guardrail"
	"finsight/internal/rag/memory"
	"finsight/internal/rag/pipeline"
	"finsight/internal/rag/prompt"
	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
	"finsight/pkg/logger"
	"finsight/pkg/retry"
)

// emptyCorpusAnswer is returned when the index holds no entries. An empty
// corpus is an answerable state, not an error.
const emptyCorpusAnswer = "I don't have any indexed documents to answer from yet. Please ingest or upload documents first."

// Answer is the result of one question.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
	Blocked bool     `json:"blocked,omitempty"`
}

// Options carries the generation and retry settings of the service.
type Options struct {
	SystemRole  string
	Temperature float32
	MaxTokens   int
	LLMTimeout  time.Duration
	Retry       retry.Config
	Namespaces  []string
}

// Service answers questions grounded in the indexed corpus, keeping a
// bounded conversation window per session.
type Service struct {
	retrieval *pipeline.RetrievalPipeline
	store     interface {
		Count(ctx context.Context) (int, error)
	}
	model    llm.LLM
	guard    *guardrail.Engine
	sessions *memory.Store
	opts     Options
	log      *logger.Logger
}

// New creates the service. store only needs to report its entry count
// here; retrieval owns the search path.
func New(
	retrieval *pipeline.RetrievalPipeline,
	store interface {
		Count(ctx context.Context) (int, error)
	},
	model llm.LLM,
	guard *guardrail.Engine,
	sessions *memory.Store,
	opts Options,
	log *logger.Logger,
) *Service {
	return &Service{
		retrieval: retrieval,
		store:     store,
		model:     model,
		guard:     guard,
		sessions:  sessions,
		opts:      opts,
		log:       log,
	}
}

// Count reports the number of indexed chunks, for health reporting.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Ask answers question for the session. Blocked requests return the
// refusal text with Blocked set and leave the session window untouched;
// only successful generations append a turn.
func (s *Service) Ask(ctx context.Context, question, sessionID string) (*Answer, error) {
	log := s.log.WithField("session_id", sessionID)

	// Check the raw question before anything touches the model. The query
	// transformer calls the same LLM, so a forbidden question must be
	// refused before retrieval runs.
	if res := s.guard.CheckOutbound(question); res.State == guardrail.Blocked {
		log.WithField("rule", res.Rule).Info("Question blocked")
		return &Answer{Text: s.guard.Refusal(), Blocked: true}, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check index: %w", err)
	}
	if count == 0 {
		log.Info("Query against empty corpus")
		return &Answer{Text: emptyCorpusAnswer}, nil
	}

	passages, err := s.retrieval.Run(ctx, question, s.opts.Namespaces...)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return &Answer{Text: emptyCorpusAnswer}, nil
	}

	history := s.sessions.Turns(sessionID)
	userPrompt := prompt.Render(prompt.Context{
		History:  history,
		Passages: passages,
		Question: question,
	})

	// Outbound check covers the whole assembled prompt, so forbidden
	// content arriving through history or passages blocks too.
	if res := s.guard.CheckOutbound(userPrompt); res.State == guardrail.Blocked {
		return &Answer{Text: s.guard.Refusal(), Blocked: true}, nil
	}

	answer, err := s.complete(ctx, userPrompt)
	if err != nil {
		log.Error(fmt.Sprintf("Generation failed: %v", err))
		return nil, fmt.Errorf("%w: %v", ragerr.ErrGenerationFailed, err)
	}

	if res := s.guard.CheckInbound(answer); res.State == guardrail.Blocked {
		return &Answer{Text: s.guard.Refusal(), Blocked: true}, nil
	}

	s.sessions.Append(sessionID, schema.Turn{Question: question, Answer: answer})
	return &Answer{
		Text:    answer,
		Sources: prompt.FormatSources(passages),
	}, nil
}

// complete invokes the model with per-call timeout and bounded retries.
func (s *Service) complete(ctx context.Context, userPrompt string) (string, error) {
	var answer string
	err := retry.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
		callCtx := ctx
		if s.opts.LLMTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.opts.LLMTimeout)
			defer cancel()
		}
		out, err := s.model.Complete(callCtx, &llm.CompletionRequest{
			System:      s.opts.SystemRole,
			Prompt:      userPrompt,
			Temperature: s.opts.Temperature,
			MaxTokens:   s.opts.MaxTokens,
		})
		if err != nil {
			return err
		}
		answer = out
		return nil
	})
	return answer, err
}
