package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finsight/internal/embedding"
	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
	"finsight/pkg/logger"
)

// embedBatchSize bounds the number of texts per provider call.
const embedBatchSize = 64

// embedWorkers bounds the number of concurrent provider calls.
const embedWorkers = 4

// IndexingPipeline orchestrates the process of loading, splitting,
// embedding, and storing documents.
type IndexingPipeline struct {
	splitter    interfaces.Splitter
	embedder    embedding.Embedding
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder embedding.Embedding,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run executes the indexing pipeline for one source path: load, split,
// embed, upsert into the namespace. It returns the number of chunks
// indexed. Re-running on the same source replaces its chunks.
func (p *IndexingPipeline) Run(ctx context.Context, loader interfaces.Loader, path, namespace string) (int, error) {
	p.log.Info(fmt.Sprintf("Starting indexing for path: %s, namespace: %s", path, namespace))

	// 1. Load the data
	docs, err := loader.Load(ctx, path)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to load data: %v", err))
		return 0, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// 2. Split documents into chunks
	chunks, err := p.splitter.Split(ctx, docs)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to split documents: %v", err))
		return 0, err
	}
	if len(chunks) == 0 {
		p.log.Warn(fmt.Sprintf("No content extracted from %s, nothing to index", path))
		return 0, nil
	}
	p.log.Info(fmt.Sprintf("Split %d documents into %d chunks", len(docs), len(chunks)))

	// 3. Embed the chunks, batched and concurrent across batches
	if err := p.embedChunks(ctx, chunks); err != nil {
		p.log.Error(fmt.Sprintf("Failed to embed chunks: %v", err))
		return 0, err
	}

	// 4. Store the chunks
	if err := p.vectorStore.Upsert(ctx, namespace, chunks); err != nil {
		p.log.Error(fmt.Sprintf("Failed to add chunks to VectorStore: %v", err))
		return 0, err
	}

	p.log.Info(fmt.Sprintf("Successfully finished indexing for: %s (%d chunks)", path, len(chunks)))
	return len(chunks), nil
}

// embedChunks fills in the Embedding of every chunk in place. Batches run
// concurrently; any failure aborts the whole group, so a partially
// embedded slice never reaches the store.
func (p *IndexingPipeline) embedChunks(ctx context.Context, chunks []schema.Chunk) error {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedWorkers)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}
			vectors, err := p.embedder.EmbedBatch(gCtx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed batch: %w", err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}
	return eg.Wait()
}
