package loaders

import (
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
)

// WebLoader implements the Loader interface for fetching and parsing web
// pages such as investor-relations releases.
type WebLoader struct {
	client *http.Client
}

// NewWebLoader creates a new WebLoader.
func NewWebLoader() *WebLoader {
	return &WebLoader{client: http.DefaultClient}
}

// Load fetches the URL, extracts the readable text, and returns it as a
// single Document.
func (l *WebLoader) Load(ctx context.Context, url string) ([]*schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	text, err := extractText(resp.Body)
	if err != nil {
		return nil, err
	}

	doc := &schema.Document{
		ID:     documentID(url),
		Source: url,
		Text:   text,
		Metadata: map[string]string{
			schema.MetadataKeySourceURL: url,
		},
	}
	return []*schema.Document{doc}, nil
}

// extractText parses an HTML document and extracts all human-readable
// text, stripping away tags, scripts, and styles. Block-level boundaries
// become newlines so downstream splitting can still find paragraph and
// sentence breaks.
func extractText(body io.Reader) (string, error) {
	z := html.NewTokenizer(body)
	var sb strings.Builder
	var inScript, inStyle bool
	sep := ""

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.TrimSpace(sb.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			tn, _ := z.TagName()
			name := string(tn)
			switch name {
			case "script":
				inScript = tt == html.StartTagToken
			case "style":
				inStyle = tt == html.StartTagToken
			}
			if b := blockBreak(name); len(b) > len(sep) {
				sep = b
			}
		case html.TextToken:
			if inScript || inStyle {
				continue
			}
			text := strings.TrimSpace(string(z.Text()))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				if sep == "" {
					sep = " "
				}
				sb.WriteString(sep)
			}
			sb.WriteString(text)
			sep = ""
		}
	}
}

// blockBreak reports the separator a tag contributes: a paragraph break
// for paragraph-like elements, a line break for other block elements, and
// nothing for inline ones.
func blockBreak(tag string) string {
	switch tag {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return "\n\n"
	case "div", "br", "li", "ul", "ol", "tr", "table", "section", "article", "header", "footer":
		return "\n"
	}
	return ""
}

// compile-time check to ensure WebLoader implements the Loader interface
var _ interfaces.Loader = (*WebLoader)(nil)
