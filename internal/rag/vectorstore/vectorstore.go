// Package vectorstore provides the persistent vector indexes used for
// retrieval: an embedded SQLite index for single-node deployments and a
// Milvus-backed index for larger corpora.
package vectorstore

import (
	"context"

	"finsight/internal/config"
	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/ragerr"
	"finsight/pkg/logger"
)

// NewStore builds the VectorStore selected by the configuration.
func NewStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (interfaces.VectorStore, error) {
	metric, err := ParseMetric(cfg.VectorStore.Metric)
	if err != nil {
		return nil, err
	}
	switch cfg.VectorStore.Backend {
	case "sqlite", "":
		return NewSQLiteStore(cfg.VectorStore.Path, cfg.Embedding.Dimension, metric)
	case "milvus":
		return NewMilvusStore(ctx, cfg.VectorStore.Milvus.Address, cfg.VectorStore.Milvus.Collection,
			cfg.Embedding.Dimension, metric, log)
	default:
		return nil, ragerr.NewConfigurationError("vectorStore.backend",
			"unsupported backend %q (expected sqlite or milvus)", cfg.VectorStore.Backend)
	}
}
