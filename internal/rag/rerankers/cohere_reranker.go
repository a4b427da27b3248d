package rerankers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
	"finsight/pkg/circuitbreaker"
	"finsight/pkg/httpclient"
)

const cohereRerankURL = "https://api.cohere.ai/v1/rerank"

// CohereReranker implements the Reranker interface using the Cohere Rerank API.
// Calls go through a circuit-breaker-guarded HTTP client so a flapping API
// degrades to the lexical fallback instead of stalling every query.
type CohereReranker struct {
	apiKey     string
	httpClient *httpclient.Client
	model      string
}

// cohereRerankRequest defines the request body for the Cohere Rerank API.
type cohereRerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

// NewCohereReranker creates a new CohereReranker.
func NewCohereReranker(apiKey, model string) *CohereReranker {
	breaker := circuitbreaker.New(3, 1, 30*time.Second)
	return &CohereReranker{
		apiKey:     apiKey,
		httpClient: httpclient.New(15*time.Second, breaker),
		model:      model,
	}
}

// Rerank re-orders the candidates by relevance scores from the Cohere API
// and keeps the best topN.
func (r *CohereReranker) Rerank(ctx context.Context, query string, candidates []schema.Candidate, topN int) ([]schema.Candidate, error) {
	if len(candidates) == 0 || topN <= 0 {
		return nil, nil
	}

	docTexts := make([]string, len(candidates))
	for i, c := range candidates {
		docTexts[i] = c.Chunk.Text
	}

	payload, err := json.Marshal(cohereRerankRequest{
		Model:           r.model,
		Query:           query,
		Documents:       docTexts,
		TopN:            topN,
		ReturnDocuments: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cohere request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cohereRerankURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create cohere request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, ragerr.Unavailable(fmt.Errorf("failed to call cohere api: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ragerr.Unavailable(fmt.Errorf("cohere api returned non-200 status: %s", resp.Status))
	}

	var cohereResp cohereRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&cohereResp); err != nil {
		return nil, fmt.Errorf("failed to decode cohere response: %w", err)
	}

	reranked := make([]schema.Candidate, 0, len(cohereResp.Results))
	for _, result := range cohereResp.Results {
		if result.Index < 0 || result.Index >= len(candidates) {
			continue
		}
		c := candidates[result.Index]
		c.Score = result.RelevanceScore
		reranked = append(reranked, c)
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	if len(reranked) > topN {
		reranked = reranked[:topN]
	}
	return reranked, nil
}

// compile-time check to ensure CohereReranker implements the Reranker interface
var _ interfaces.Reranker = (*CohereReranker)(nil)
