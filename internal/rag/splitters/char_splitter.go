package splitters

import (
	"context"
	"fmt"
	"unicode"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
)

// CharSplitter implements the Splitter interface by greedy character-based
// splitting. Within each window it prefers to break at a paragraph
// boundary, then at a sentence end, then at whitespace, and hard-cuts at
// the window edge only when no boundary exists. Each chunk after the first
// starts chunkOverlap characters before the previous chunk's end, so the
// union of chunk spans covers the document with no gaps.
type CharSplitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewCharSplitter creates a new CharSplitter. Sizes are measured in runes.
func NewCharSplitter(chunkSize, chunkOverlap int) (*CharSplitter, error) {
	if chunkSize <= 0 {
		return nil, ragerr.NewConfigurationError("splitter.chunkSize", "must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, ragerr.NewConfigurationError("splitter.chunkOverlap",
			"must be in [0, chunkSize), got overlap %d for size %d", chunkOverlap, chunkSize)
	}
	return &CharSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split splits each document into overlapping chunks. An empty document
// yields no chunks; a document shorter than the chunk size yields exactly
// one.
func (s *CharSplitter) Split(ctx context.Context, docs []*schema.Document) ([]schema.Chunk, error) {
	var chunks []schema.Chunk
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, s.splitDocument(doc)...)
	}
	return chunks, nil
}

func (s *CharSplitter) splitDocument(doc *schema.Document) []schema.Chunk {
	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []schema.Chunk
	start := 0
	for idx := 0; ; idx++ {
		end := start + s.chunkSize
		if end >= n {
			end = n
		} else {
			end = breakPoint(runes, start, end)
		}

		chunks = append(chunks, schema.Chunk{
			// Deterministic per document and position, so re-ingesting maps
			// onto the same index entries.
			ID:         fmt.Sprintf("%s:%d", doc.ID, idx),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
			Metadata:   copyMetadata(doc.Metadata),
		})

		if end >= n {
			break
		}
		next := end - s.chunkOverlap
		if next <= start {
			// Guarantees forward progress when the boundary landed inside
			// the overlap region.
			next = start + 1
		}
		start = next
	}
	return chunks
}

// breakPoint picks the end offset for a chunk spanning [start, limit),
// preferring paragraph, then sentence, then whitespace boundaries, scanning
// backwards from the window edge. Returns limit when no boundary exists.
func breakPoint(runes []rune, start, limit int) int {
	// Paragraph: break just after a blank line.
	for i := limit; i > start+1; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	// Sentence: break after terminal punctuation followed by whitespace.
	for i := limit; i > start+1; i-- {
		if isSentenceEnd(runes[i-2]) && unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	// Whitespace: break after any space.
	for i := limit; i > start+1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return limit
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func copyMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// compile-time check to ensure CharSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharSplitter)(nil)
