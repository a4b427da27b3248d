package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/rag/schema"
)

func pdfPassage(text, file, page string) schema.Candidate {
	return schema.Candidate{
		Chunk: schema.Chunk{
			Text:   text,
			Source: file,
			Metadata: map[string]string{
				schema.MetadataKeyFileName:  file,
				schema.MetadataKeyPageLabel: page,
			},
		},
	}
}

func TestRender_Layout(t *testing.T) {
	out := Render(Context{
		History: []schema.Turn{
			{Question: "What was revenue?", Answer: "Revenue was 10B."},
			{Question: "And net income?", Answer: "Net income was 2B."},
		},
		Passages: []schema.Candidate{
			pdfPassage("Gross margin expanded to 44%.", "10k.pdf", "12"),
		},
		Question: "What drove the margin expansion?",
	})

	// Fixed section order: history, passages, question.
	historyIdx := strings.Index(out, "Chat history:")
	passageIdx := strings.Index(out, "# Retrieved content 1:")
	questionIdx := strings.Index(out, "# User new question:")
	require.NotEqual(t, -1, historyIdx)
	require.NotEqual(t, -1, passageIdx)
	require.NotEqual(t, -1, questionIdx)
	assert.Less(t, historyIdx, passageIdx)
	assert.Less(t, passageIdx, questionIdx)

	assert.Contains(t, out, "Source: 10k.pdf | Page number: 12")
	assert.True(t, strings.HasSuffix(out, "What drove the margin expansion?"))
}

func TestRender_HistoryIsChronological(t *testing.T) {
	out := Render(Context{
		History: []schema.Turn{
			{Question: "first question", Answer: "first answer"},
			{Question: "second question", Answer: "second answer"},
		},
		Question: "third question",
	})

	assert.Less(t, strings.Index(out, "first question"), strings.Index(out, "second question"))
}

func TestRender_NoHistoryNoPassages(t *testing.T) {
	out := Render(Context{Question: "Only a question."})

	assert.NotContains(t, out, "Chat history:")
	assert.NotContains(t, out, "# Retrieved content")
	assert.Equal(t, "# User new question:\nOnly a question.", out)
}

func TestRender_NumbersPassages(t *testing.T) {
	out := Render(Context{
		Passages: []schema.Candidate{
			pdfPassage("First passage.", "a.pdf", "1"),
			pdfPassage("Second passage.", "b.pdf", "2"),
		},
		Question: "q",
	})

	assert.Contains(t, out, "# Retrieved content 1:\nFirst passage.")
	assert.Contains(t, out, "# Retrieved content 2:\nSecond passage.")
}

func TestFormatSources_DeduplicatesInOrder(t *testing.T) {
	sources := FormatSources([]schema.Candidate{
		pdfPassage("a", "10k.pdf", "12"),
		pdfPassage("b", "10k.pdf", "12"),
		pdfPassage("c", "10q.pdf", "3"),
	})

	require.Len(t, sources, 2)
	assert.Equal(t, "Source: 10k.pdf | Page number: 12", sources[0])
	assert.Equal(t, "Source: 10q.pdf | Page number: 3", sources[1])
}

func TestSourceLabel_FallsBackToSource(t *testing.T) {
	sources := FormatSources([]schema.Candidate{
		{Chunk: schema.Chunk{Source: "https://example.com/earnings", Text: "x"}},
	})
	require.Len(t, sources, 1)
	assert.Equal(t, "Source: https://example.com/earnings", sources[0])
}
