package loaders

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
)

var (
	mdImagePattern = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkPattern  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdCodeFence    = regexp.MustCompile("(?s)```.*?```")
)

// MarkdownLoader implements the Loader interface for Markdown files. It
// strips markup that carries no retrievable text (images, code fences)
// and reduces links to their label.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a markdown file and returns it as a single Document with the
// markup reduced to plain text.
func (l *MarkdownLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := string(content)
	text = mdCodeFence.ReplaceAllString(text, "")
	text = mdImagePattern.ReplaceAllString(text, "")
	text = mdLinkPattern.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "#", "")

	doc := &schema.Document{
		ID:     documentID(path),
		Source: filepath.Base(path),
		Text:   strings.TrimSpace(text),
		Metadata: map[string]string{
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}
	return []*schema.Document{doc}, nil
}

// compile-time check to ensure MarkdownLoader implements the Loader interface
var _ interfaces.Loader = (*MarkdownLoader)(nil)
