package compressor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/rag/schema"
	"finsight/pkg/logger"
)

func newCompressor(t *testing.T) *Extractive {
	t.Helper()
	logger.Init(logger.ParseLevel("error"))
	return NewExtractive(logger.New("test", ""))
}

func passage(id, text string) schema.Candidate {
	return schema.Candidate{Chunk: schema.Chunk{ID: id, Text: text}, Score: 1}
}

func TestCompress_FitsWithinBudget(t *testing.T) {
	c := newCompressor(t)

	long := strings.Repeat("Filler sentence with no relevance whatsoever. ", 50) +
		"Free cash flow reached a record 2.1 billion dollars. " +
		strings.Repeat("More filler content about unrelated topics. ", 50)

	out, err := c.Compress(context.Background(), "What was the free cash flow?", []schema.Candidate{passage("p1", long)}, 50)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// 50 tokens at 4 chars each.
	assert.LessOrEqual(t, len([]rune(out[0].Chunk.Text)), 200)
	assert.Contains(t, out[0].Chunk.Text, "Free cash flow")
}

func TestCompress_NeverReturnsEmptyForNonEmptyInput(t *testing.T) {
	c := newCompressor(t)

	// One sentence longer than the entire budget.
	text := "A single extremely long sentence " + strings.Repeat("with many words ", 40) + "and no break."
	out, err := c.Compress(context.Background(), "anything", []schema.Candidate{passage("p1", text)}, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].Chunk.Text)
	assert.LessOrEqual(t, len([]rune(out[0].Chunk.Text)), 40)
}

func TestCompress_KeepsQueryRelevantSentences(t *testing.T) {
	c := newCompressor(t)

	text := "The board declared a dividend of 80 cents. " +
		"Office renovations were completed in June. " +
		"The dividend is payable to shareholders of record."

	out, err := c.Compress(context.Background(), "dividend", []schema.Candidate{passage("p1", text)}, 25)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Chunk.Text, "dividend")
	assert.NotContains(t, out[0].Chunk.Text, "renovations")
}

func TestCompress_PreservesPassageOrder(t *testing.T) {
	c := newCompressor(t)

	out, err := c.Compress(context.Background(), "revenue", []schema.Candidate{
		passage("first", "Revenue grew."),
		passage("second", "Revenue guidance was raised."),
	}, 100)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Chunk.ID)
	assert.Equal(t, "second", out[1].Chunk.ID)
}

func TestCompress_EmptyInput(t *testing.T) {
	c := newCompressor(t)

	out, err := c.Compress(context.Background(), "anything", nil, 100)
	require.NoError(t, err)
	assert.Empty(t, out)
}
