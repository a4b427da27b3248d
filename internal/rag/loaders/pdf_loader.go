package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
)

// PdfLoader implements the Loader interface for PDF files. Each page
// becomes its own Document so that citations can point at a page label,
// the way financial filings are usually referenced.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load extracts the plain text of every page in the PDF at path.
func (l *PdfLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %q: %w", path, err)
	}
	defer f.Close()

	fileName := filepath.Base(path)
	var documents []*schema.Document

	total := reader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole filing.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		documents = append(documents, &schema.Document{
			ID:     documentID(path, strconv.Itoa(pageNum)),
			Source: fileName,
			Text:   text,
			Metadata: map[string]string{
				schema.MetadataKeyFileName:  fileName,
				schema.MetadataKeyPageLabel: strconv.Itoa(pageNum),
			},
		})
	}
	return documents, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
