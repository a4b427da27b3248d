package interfaces

import (
	"context"

	"finsight/internal/rag/schema"
)

// Loader reads data from a source (file path or URL) and converts it into
// one or more Document objects.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter cuts documents into overlapping chunks suitable for embedding.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]schema.Chunk, error)
}

// VectorStore persists chunk vectors with their metadata and supports
// nearest-neighbor search. The similarity metric is fixed per store
// instance at construction.
type VectorStore interface {
	// Upsert inserts chunks under the given namespace. It is idempotent per
	// chunk ID: re-inserting an existing chunk replaces it. Each entry
	// becomes visible to readers atomically, independent of the batch.
	Upsert(ctx context.Context, namespace string, chunks []schema.Chunk) error

	// Search returns at most k candidates ordered by descending similarity,
	// ties broken by insertion order. With more than one namespace the
	// per-namespace results are merged and re-sorted by score.
	Search(ctx context.Context, vector []float32, k int, namespaces ...string) ([]schema.Candidate, error)

	// DeleteByDocument removes every chunk belonging to the document.
	DeleteByDocument(ctx context.Context, docID string) error

	// Count reports the total number of entries across all namespaces.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Reranker re-orders retrieved candidates by a finer-grained relevance
// score. Implementations must be pure functions of (query, candidates).
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []schema.Candidate, topN int) ([]schema.Candidate, error)
}

// Compressor reduces the token footprint of selected passages while keeping
// the content most relevant to the query. Compression is lossy; given a
// non-empty input it always returns at least one passage.
type Compressor interface {
	Compress(ctx context.Context, query string, candidates []schema.Candidate, tokenBudget int) ([]schema.Candidate, error)
}
