// Package prompt assembles the user prompt sent to the language model
// from conversation history, retrieved passages and the new question.
package prompt

import (
	"fmt"
	"strings"

	"finsight/internal/rag/schema"
)

// Context carries everything Render needs. Rendering is a pure function
// of this struct, so prompt layout is testable without any provider.
type Context struct {
	History  []schema.Turn      // oldest first
	Passages []schema.Candidate // reranked and compressed, best first
	Question string
}

// Render produces the user-role prompt: chat history first, then the
// retrieved passages with source labels, then the new question.
func Render(c Context) string {
	var b strings.Builder

	if len(c.History) > 0 {
		b.WriteString("Chat history:\n")
		for _, turn := range c.History {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
		}
		b.WriteString("\n")
	}

	for i, p := range c.Passages {
		fmt.Fprintf(&b, "# Retrieved content %d:\n%s\n\n%s\n\n", i+1, strings.TrimSpace(p.Chunk.Text), sourceLabel(p.Chunk))
	}

	b.WriteString("# User new question:\n")
	b.WriteString(c.Question)
	return b.String()
}

// sourceLabel formats the provenance line under a passage.
func sourceLabel(chunk schema.Chunk) string {
	label := "Source: " + displaySource(chunk)
	if page, ok := chunk.Metadata[schema.MetadataKeyPageLabel]; ok && page != "" {
		label += " | Page number: " + page
	}
	if sheet, ok := chunk.Metadata[schema.MetadataKeySheetName]; ok && sheet != "" {
		label += " | Sheet: " + sheet
	}
	return label
}

// FormatSources lists the distinct provenance labels of the passages, in
// passage order, for the answer's source attribution.
func FormatSources(passages []schema.Candidate) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, p := range passages {
		label := sourceLabel(p.Chunk)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		sources = append(sources, label)
	}
	return sources
}

func displaySource(chunk schema.Chunk) string {
	if name, ok := chunk.Metadata[schema.MetadataKeyFileName]; ok && name != "" {
		return name
	}
	if url, ok := chunk.Metadata[schema.MetadataKeySourceURL]; ok && url != "" {
		return url
	}
	return chunk.Source
}
