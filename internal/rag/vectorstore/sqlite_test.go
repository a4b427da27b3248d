package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := NewSQLiteStore(path, 3, MetricCosine)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func chunk(id string, vec []float32) schema.Chunk {
	return schema.Chunk{
		ID:         id,
		DocumentID: "doc",
		Source:     "doc.txt",
		Text:       "text of " + id,
		Embedding:  vec,
	}
}

func TestSQLiteStore_SearchOrdersByScore(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{
		chunk("far", []float32{0, 1, 0}),
		chunk("near", []float32{1, 0.1, 0}),
		chunk("exact", []float32{1, 0, 0}),
	}))

	found, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "exact", found[0].Chunk.ID)
	assert.Equal(t, "near", found[1].Chunk.ID)
	assert.Greater(t, found[0].Score, found[1].Score)
}

func TestSQLiteStore_TiesBreakByInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	vec := []float32{0, 0, 1}
	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{
		chunk("first", vec),
		chunk("second", vec),
		chunk("third", vec),
	}))

	found, err := store.Search(ctx, vec, 3)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "first", found[0].Chunk.ID)
	assert.Equal(t, "second", found[1].Chunk.ID)
	assert.Equal(t, "third", found[2].Chunk.ID)
}

func TestSQLiteStore_UpsertIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	vec := []float32{0, 0, 1}
	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{
		chunk("a", vec),
		chunk("b", vec),
	}))

	// Re-ingesting chunk "a" replaces its content but keeps its
	// insertion position for tie-breaking.
	updated := chunk("a", vec)
	updated.Text = "updated text"
	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{updated}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	found, err := store.Search(ctx, vec, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0].Chunk.ID)
	assert.Equal(t, "updated text", found[0].Chunk.Text)
	assert.Equal(t, "b", found[1].Chunk.ID)
}

func TestSQLiteStore_NamespaceFiltering(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{chunk("corpus-1", vec)}))
	require.NoError(t, store.Upsert(ctx, schema.NamespaceUploads, []schema.Chunk{chunk("upload-1", vec)}))

	found, err := store.Search(ctx, vec, 10, schema.NamespaceCorpus)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "corpus-1", found[0].Chunk.ID)

	found, err = store.Search(ctx, vec, 10, schema.NamespaceCorpus, schema.NamespaceUploads)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	// No namespaces searches everything.
	found, err = store.Search(ctx, vec, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	c := chunk("kept", []float32{1, 0, 0})
	c.Metadata = map[string]string{schema.MetadataKeyFileName: "report.pdf"}
	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{c}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, 3, MetricCosine)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err := reopened.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "kept", found[0].Chunk.ID)
	assert.Equal(t, "report.pdf", found[0].Chunk.Metadata[schema.MetadataKeyFileName])
}

func TestSQLiteStore_RejectsMismatchedReopen(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := NewSQLiteStore(path, 5, MetricCosine)
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))

	_, err = NewSQLiteStore(path, 3, MetricDot)
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestSQLiteStore_RejectsWrongDimension(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{chunk("bad", []float32{1, 0})})
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))

	_, err = store.Search(ctx, []float32{1, 0}, 1)
	require.Error(t, err)
	assert.True(t, ragerr.IsConfiguration(err))
}

func TestSQLiteStore_DeleteByDocument(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	a := chunk("a:0", vec)
	a.DocumentID = "a"
	b := chunk("b:0", vec)
	b.DocumentID = "b"
	require.NoError(t, store.Upsert(ctx, schema.NamespaceCorpus, []schema.Chunk{a, b}))

	require.NoError(t, store.DeleteByDocument(ctx, "a"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err := store.Search(ctx, vec, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b:0", found[0].Chunk.ID)
}

func TestMetric_Score(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, float64(MetricCosine.Score(a, b)), 1e-9)
	assert.InDelta(t, 0.0, float64(MetricCosine.Score(a, []float32{0, 1, 0})), 1e-9)
	assert.InDelta(t, 2.0, float64(MetricDot.Score([]float32{2, 0, 0}, a)), 1e-9)

	// Zero vectors score zero under cosine instead of dividing by zero.
	assert.Equal(t, 0.0, MetricCosine.Score([]float32{0, 0, 0}, b))
}

func TestEncodeDecodeVector(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
