package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
	"finsight/pkg/logger"
)

const (
	// Schema fields of the Milvus collection.
	fieldID        = "id"
	fieldDocID     = "doc_id"
	fieldNamespace = "namespace"
	fieldSource    = "source"
	fieldStart     = "start_offset"
	fieldEnd       = "end_offset"
	fieldContent   = "content"
	fieldMetadata  = "metadata"
	fieldEmbedding = "embedding"

	milvusVarCharMax = 65535
)

// MilvusStore backs the VectorStore interface with a Milvus collection,
// for deployments where the corpus outgrows the embedded SQLite index.
type MilvusStore struct {
	log        *logger.Logger
	client     client.Client
	collection string
	dimension  int
	metric     Metric
}

// NewMilvusStore connects to Milvus and ensures the collection exists with
// the configured dimension and metric.
func NewMilvusStore(ctx context.Context, address, collection string, dimension int, metric Metric, log *logger.Logger) (*MilvusStore, error) {
	if dimension <= 0 {
		return nil, ragerr.NewConfigurationError("vectorStore.dimension", "must be positive, got %d", dimension)
	}
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, ragerr.Unavailable(fmt.Errorf("failed to connect to milvus at %s: %w", address, err))
	}

	s := &MilvusStore{
		log:        log,
		client:     c,
		collection: collection,
		dimension:  dimension,
		metric:     metric,
	}
	if err := s.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return s, nil
}

func (s *MilvusStore) metricType() entity.MetricType {
	if s.metric == MetricDot {
		return entity.IP
	}
	return entity.COSINE
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check milvus collection: %w", err)
	}
	if !exists {
		collSchema := entity.NewSchema().
			WithName(s.collection).
			WithDescription("document chunks with embeddings").
			WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(512).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(fieldDocID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(512)).
			WithField(entity.NewField().WithName(fieldNamespace).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
			WithField(entity.NewField().WithName(fieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024)).
			WithField(entity.NewField().WithName(fieldStart).WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(fieldEnd).WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(fieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusVarCharMax)).
			WithField(entity.NewField().WithName(fieldMetadata).WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusVarCharMax)).
			WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dimension)))

		if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create milvus collection: %w", err)
		}
		idx, err := entity.NewIndexHNSW(s.metricType(), 8, 96)
		if err != nil {
			return fmt.Errorf("failed to build milvus index definition: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collection, fieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create milvus index: %w", err)
		}
	}
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return ragerr.Unavailable(fmt.Errorf("failed to load milvus collection %q: %w", s.collection, err))
	}
	return nil
}

// Upsert writes chunks under the namespace, replacing any existing rows
// with the same chunk ID.
func (s *MilvusStore) Upsert(ctx context.Context, namespace string, chunks []schema.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	docIDs := make([]string, len(chunks))
	namespaces := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	starts := make([]int64, len(chunks))
	ends := make([]int64, len(chunks))
	contents := make([]string, len(chunks))
	metadatas := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))

	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return ragerr.NewConfigurationError("vectorStore.dimension",
				"chunk %s has vector dimension %d, collection expects %d", chunk.ID, len(chunk.Embedding), s.dimension)
		}
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		ids[i] = chunk.ID
		docIDs[i] = chunk.DocumentID
		namespaces[i] = namespace
		sources[i] = chunk.Source
		starts[i] = int64(chunk.Start)
		ends[i] = int64(chunk.End)
		contents[i] = chunk.Text
		metadatas[i] = string(meta)
		vectors[i] = chunk.Embedding
	}

	s.log.WithField("count", len(chunks)).Info(fmt.Sprintf("Upserting %d chunks into Milvus collection %s", len(chunks), s.collection))
	_, err := s.client.Upsert(ctx, s.collection, "", /* default partition */
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldDocID, docIDs),
		entity.NewColumnVarChar(fieldNamespace, namespaces),
		entity.NewColumnVarChar(fieldSource, sources),
		entity.NewColumnInt64(fieldStart, starts),
		entity.NewColumnInt64(fieldEnd, ends),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnVarChar(fieldMetadata, metadatas),
		entity.NewColumnFloatVector(fieldEmbedding, s.dimension, vectors),
	)
	if err != nil {
		return ragerr.Unavailable(fmt.Errorf("failed to upsert into milvus: %w", err))
	}
	return nil
}

// Search runs a vector similarity search restricted to the given
// namespaces (all namespaces when none are given).
func (s *MilvusStore) Search(ctx context.Context, vector []float32, k int, namespaces ...string) ([]schema.Candidate, error) {
	if len(vector) != s.dimension {
		return nil, ragerr.NewConfigurationError("vectorStore.dimension",
			"query vector dimension %d, collection expects %d", len(vector), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	filterExpr := namespaceFilter(namespaces)
	outputFields := []string{fieldID, fieldDocID, fieldSource, fieldStart, fieldEnd, fieldContent, fieldMetadata}
	searchParams, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("failed to build milvus search params: %w", err)
	}

	results, err := s.client.Search(
		ctx, s.collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		fieldEmbedding, s.metricType(), k, searchParams,
	)
	if err != nil {
		return nil, ragerr.Unavailable(fmt.Errorf("failed to search milvus: %w", err))
	}

	var candidates []schema.Candidate
	for _, res := range results {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(fieldID).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing ID field, skipping")
			continue
		}
		docIDCol, _ := findColumn(fieldDocID).(*entity.ColumnVarChar)
		sourceCol, _ := findColumn(fieldSource).(*entity.ColumnVarChar)
		startCol, _ := findColumn(fieldStart).(*entity.ColumnInt64)
		endCol, _ := findColumn(fieldEnd).(*entity.ColumnInt64)
		contentCol, _ := findColumn(fieldContent).(*entity.ColumnVarChar)
		metaCol, _ := findColumn(fieldMetadata).(*entity.ColumnVarChar)

		for i := 0; i < res.ResultCount; i++ {
			chunk := schema.Chunk{ID: idCol.Data()[i]}
			if docIDCol != nil {
				chunk.DocumentID = docIDCol.Data()[i]
			}
			if sourceCol != nil {
				chunk.Source = sourceCol.Data()[i]
			}
			if startCol != nil {
				chunk.Start = int(startCol.Data()[i])
			}
			if endCol != nil {
				chunk.End = int(endCol.Data()[i])
			}
			if contentCol != nil {
				chunk.Text = contentCol.Data()[i]
			}
			if metaCol != nil && metaCol.Data()[i] != "" && metaCol.Data()[i] != "null" {
				if err := json.Unmarshal([]byte(metaCol.Data()[i]), &chunk.Metadata); err != nil {
					s.log.WithField("chunk_id", chunk.ID).Warn("Failed to decode chunk metadata, skipping metadata")
				}
			}
			candidates = append(candidates, schema.Candidate{
				Chunk: chunk,
				Score: float64(res.Scores[i]),
			})
		}
	}
	return candidates, nil
}

// DeleteByDocument removes every chunk belonging to the document.
func (s *MilvusStore) DeleteByDocument(ctx context.Context, docID string) error {
	expr := fmt.Sprintf("%s == %s", fieldDocID, strconv.Quote(docID))
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return ragerr.Unavailable(fmt.Errorf("failed to delete document %s from milvus: %w", docID, err))
	}
	return nil
}

// Count reports the number of rows in the collection.
func (s *MilvusStore) Count(ctx context.Context) (int, error) {
	stats, err := s.client.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, ragerr.Unavailable(fmt.Errorf("failed to read milvus collection statistics: %w", err))
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// Close releases the Milvus connection.
func (s *MilvusStore) Close() error {
	return s.client.Close()
}

func namespaceFilter(namespaces []string) string {
	if len(namespaces) == 0 {
		return ""
	}
	quoted := make([]string, len(namespaces))
	for i, ns := range namespaces {
		quoted[i] = strconv.Quote(ns)
	}
	return fmt.Sprintf("%s in [%s]", fieldNamespace, strings.Join(quoted, ", "))
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
