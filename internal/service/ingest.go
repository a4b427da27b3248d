package service

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"finsight/internal/rag/loaders"
	"finsight/internal/rag/pipeline"
	"finsight/pkg/logger"
)

// Ingestor indexes documents into a namespace of the vector store.
type Ingestor struct {
	indexing *pipeline.IndexingPipeline
	log      *logger.Logger
}

// NewIngestor creates an Ingestor over the indexing pipeline.
func NewIngestor(indexing *pipeline.IndexingPipeline, log *logger.Logger) *Ingestor {
	return &Ingestor{indexing: indexing, log: log}
}

// Ingest indexes a single file or URL into the namespace, returning the
// number of chunks written. Ingesting the same source again replaces its
// previous chunks.
func (in *Ingestor) Ingest(ctx context.Context, path, namespace string) (int, error) {
	return in.indexing.Run(ctx, loaders.ForPath(path), path, namespace)
}

// IngestDir walks dir and indexes every supported file into the
// namespace. Unsupported extensions are skipped with a warning; a failing
// file aborts the walk.
func (in *Ingestor) IngestDir(ctx context.Context, dir, namespace string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !supportedExt(filepath.Ext(path)) {
			in.log.Warn(fmt.Sprintf("Skipping unsupported file: %s", path))
			return nil
		}
		n, err := in.Ingest(ctx, path, namespace)
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("failed to ingest directory %s: %w", dir, err)
	}
	return total, nil
}

func supportedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".txt", ".md", ".xlsx", ".csv", ".html", ".htm":
		return true
	}
	return false
}
