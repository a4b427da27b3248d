// Package compressor shrinks reranked passages to fit the prompt's
// context budget, keeping the sentences most related to the query.
package compressor

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
	"finsight/pkg/logger"
)

// charsPerToken is the token estimate used against the budget. Four
// characters per token is a close-enough approximation for English
// financial prose across the supported model families.
const charsPerToken = 4

// Extractive selects whole sentences from each passage, biased toward
// sentences sharing terms with the query, until the token budget is
// spent. It never drops a passage entirely as long as budget remains,
// and always emits at least one (possibly truncated) passage so the
// composer has something to cite.
type Extractive struct {
	log *logger.Logger
}

// NewExtractive creates a new extractive compressor.
func NewExtractive(log *logger.Logger) *Extractive {
	return &Extractive{log: log}
}

// Compress returns the candidates with their texts reduced to fit
// tokenBudget, preserving candidate order and sentence order inside
// each passage.
func (c *Extractive) Compress(ctx context.Context, query string, candidates []schema.Candidate, tokenBudget int) ([]schema.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	budget := tokenBudget * charsPerToken
	queryTerms := queryTermSet(query)

	originalChars := 0
	usedChars := 0
	var compressed []schema.Candidate
	for _, candidate := range candidates {
		originalChars += len([]rune(candidate.Chunk.Text))
		remaining := budget - usedChars
		if remaining <= 0 {
			break
		}
		text := selectSentences(candidate.Chunk.Text, queryTerms, remaining)
		if text == "" {
			continue
		}
		usedChars += len([]rune(text))
		candidate.Chunk.Text = text
		compressed = append(compressed, candidate)
	}

	// The budget may be smaller than any single sentence. Truncate the
	// top passage rather than answering from nothing.
	if len(compressed) == 0 {
		first := candidates[0]
		runes := []rune(first.Chunk.Text)
		if budget > 0 && len(runes) > budget {
			runes = runes[:budget]
		}
		first.Chunk.Text = strings.TrimSpace(string(runes))
		usedChars = len([]rune(first.Chunk.Text))
		compressed = append(compressed, first)
	}

	if originalChars > 0 {
		c.log.WithPayload(map[string]interface{}{
			"passages_in":  len(candidates),
			"passages_out": len(compressed),
			"ratio":        float64(usedChars) / float64(originalChars),
		}).Debug("Compressed retrieved passages")
	}
	return compressed, nil
}

// selectSentences keeps the best-scoring sentences of text that fit in
// charBudget, re-joined in their original order.
func selectSentences(text string, queryTerms map[string]struct{}, charBudget int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	type ranked struct {
		index int
		score float64
	}
	order := make([]ranked, len(sentences))
	for i, s := range sentences {
		order[i] = ranked{index: i, score: sentenceScore(s, queryTerms)}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})

	used := 0
	keep := make([]bool, len(sentences))
	for _, r := range order {
		cost := len([]rune(sentences[r.index]))
		if used > 0 {
			cost++ // joining space
		}
		if used+cost > charBudget {
			continue
		}
		keep[r.index] = true
		used += cost
	}

	var parts []string
	for i, s := range sentences {
		if keep[i] {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, " ")
}

func sentenceScore(sentence string, queryTerms map[string]struct{}) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range tokenize(sentence) {
		if _, ok := queryTerms[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// splitSentences cuts text at sentence-ending punctuation followed by
// whitespace. Newlines also terminate a sentence so table rows and list
// items stay intact.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		atEnd := i == len(runes)-1
		if r == '\n' || atEnd || (isSentenceEnd(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1])) {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？'
}

func queryTermSet(query string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, t := range tokenize(query) {
		terms[t] = struct{}{}
	}
	return terms
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// compile-time check to ensure Extractive implements the Compressor interface
var _ interfaces.Compressor = (*Extractive)(nil)
