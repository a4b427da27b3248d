package rerankers

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
)

// LexicalReranker scores candidates by term overlap with the query. It is
// the default reranker and the fallback when a remote reranker is
// unavailable: no network, fully deterministic.
//
// The lexical score is blended with the retrieval score so that candidates
// sharing no query terms keep their vector ordering instead of collapsing
// to a tie.
type LexicalReranker struct{}

// NewLexicalReranker creates a new LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank orders the candidates by query term overlap, descending, and
// keeps the best topN. Ties preserve the incoming order.
func (r *LexicalReranker) Rerank(ctx context.Context, query string, candidates []schema.Candidate, topN int) ([]schema.Candidate, error) {
	if len(candidates) == 0 || topN <= 0 {
		return nil, nil
	}

	queryTerms := termSet(query)
	reranked := make([]schema.Candidate, len(candidates))
	for i, c := range candidates {
		reranked[i] = c
		reranked[i].Score = overlapScore(queryTerms, c.Chunk.Text) + c.Score/1000
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	if len(reranked) > topN {
		reranked = reranked[:topN]
	}
	return reranked, nil
}

// overlapScore is the fraction of distinct query terms present in text.
func overlapScore(queryTerms map[string]struct{}, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	textTerms := termSet(text)
	matched := 0
	for term := range queryTerms {
		if _, ok := textTerms[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

func termSet(s string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		terms[field] = struct{}{}
	}
	return terms
}

// compile-time check to ensure LexicalReranker implements the Reranker interface
var _ interfaces.Reranker = (*LexicalReranker)(nil)
