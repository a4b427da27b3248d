package pipeline

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"finsight/internal/embedding"
	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/rerankers"
	"finsight/internal/rag/schema"
	"finsight/internal/rag/transform"
	"finsight/pkg/logger"
)

// RetrievalPipeline orchestrates the online query path: transform the
// question, search the index per sub-query, merge, rerank and compress.
type RetrievalPipeline struct {
	transformer *transform.Transformer
	embedder    embedding.Embedding
	vectorStore interfaces.VectorStore
	reranker    interfaces.Reranker
	fallback    interfaces.Reranker
	compressor  interfaces.Compressor
	log         *logger.Logger

	k           int
	topN        int
	tokenBudget int
}

// NewRetrievalPipeline creates a new RetrievalPipeline. The reranker may
// be remote; on its failure the local lexical reranker takes over so a
// degraded reranking service never fails a query.
func NewRetrievalPipeline(
	transformer *transform.Transformer,
	embedder embedding.Embedding,
	vectorStore interfaces.VectorStore,
	reranker interfaces.Reranker,
	compressor interfaces.Compressor,
	k, topN, tokenBudget int,
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		transformer: transformer,
		embedder:    embedder,
		vectorStore: vectorStore,
		reranker:    reranker,
		fallback:    rerankers.NewLexicalReranker(),
		compressor:  compressor,
		log:         log,
		k:           k,
		topN:        topN,
		tokenBudget: tokenBudget,
	}
}

// Run retrieves the passages to ground an answer to question, searching
// the given namespaces (all when empty). The result is reranked,
// compressed and ordered best first.
func (p *RetrievalPipeline) Run(ctx context.Context, question string, namespaces ...string) ([]schema.Candidate, error) {
	// 1. Derive the retrieval queries
	queries := p.transformer.Queries(ctx, question)
	p.log.Info(fmt.Sprintf("Retrieving with %d query(ies) for question: %q", len(queries), question))

	// 2. Embed and search each sub-query concurrently
	perQuery := make([][]schema.Candidate, len(queries))
	eg, gCtx := errgroup.WithContext(ctx)
	for i, query := range queries {
		eg.Go(func() error {
			vector, err := p.embedder.Embed(gCtx, query)
			if err != nil {
				return fmt.Errorf("failed to embed query: %w", err)
			}
			found, err := p.vectorStore.Search(gCtx, vector, p.k, namespaces...)
			if err != nil {
				return fmt.Errorf("failed to search vector store: %w", err)
			}
			perQuery[i] = found
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 3. Merge sub-query results deterministically
	candidates := mergeCandidates(perQuery)
	if len(candidates) == 0 {
		p.log.Info("No candidates found in vector store for the given query")
		return nil, nil
	}
	if len(candidates) > p.k {
		candidates = candidates[:p.k]
	}
	p.log.Info(fmt.Sprintf("Retrieved %d candidates from vector store", len(candidates)))

	// 4. Rerank, falling back to lexical reranking on failure
	reranked, err := p.reranker.Rerank(ctx, question, candidates, p.topN)
	if err != nil {
		p.log.Warn(fmt.Sprintf("Reranker failed, falling back to lexical reranking: %v", err))
		reranked, err = p.fallback.Rerank(ctx, question, candidates, p.topN)
		if err != nil {
			return nil, fmt.Errorf("failed to rerank candidates: %w", err)
		}
	}

	// 5. Compress to fit the prompt budget
	compressed, err := p.compressor.Compress(ctx, question, reranked, p.tokenBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to compress passages: %w", err)
	}
	return compressed, nil
}

// mergeCandidates unions per-query results, deduplicating by chunk ID and
// keeping the best score per chunk. Sub-query order and a stable sort
// make the merge deterministic: equal scores keep first-seen order.
func mergeCandidates(perQuery [][]schema.Candidate) []schema.Candidate {
	best := make(map[string]int)
	var merged []schema.Candidate
	for _, found := range perQuery {
		for _, c := range found {
			if i, ok := best[c.Chunk.ID]; ok {
				if c.Score > merged[i].Score {
					merged[i].Score = c.Score
				}
				continue
			}
			best[c.Chunk.ID] = len(merged)
			merged = append(merged, c)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}
