package loaders

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/schema"
)

// XlsxLoader implements the Loader interface for Excel (.xlsx) workbooks,
// the common container for financial statements. Each sheet becomes one
// Document with its rows rendered as a Markdown table.
type XlsxLoader struct{}

// NewXlsxLoader creates a new XlsxLoader.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

// Load reads every sheet of the workbook at path.
func (l *XlsxLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fileName := filepath.Base(path)
	var documents []*schema.Document

	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}

		var sb strings.Builder
		sb.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
		for _, row := range rows[1:] {
			sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}

		documents = append(documents, &schema.Document{
			ID:     documentID(path, sheetName),
			Source: fileName,
			Text:   sb.String(),
			Metadata: map[string]string{
				schema.MetadataKeyFileName:  fileName,
				schema.MetadataKeySheetName: sheetName,
			},
		})
	}
	return documents, nil
}

// compile-time check to ensure XlsxLoader implements the Loader interface
var _ interfaces.Loader = (*XlsxLoader)(nil)
