// Package loaders converts source files and URLs into Documents.
package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"finsight/internal/rag/interfaces"
)

// documentID derives a stable document ID from the source path (plus an
// optional part such as a page or sheet). Determinism is what makes
// re-ingesting a source replace its chunks instead of duplicating them.
func documentID(path string, part ...string) string {
	name := path
	if len(part) > 0 {
		name = fmt.Sprintf("%s#%s", path, strings.Join(part, "#"))
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// ForPath selects the loader matching the path's extension. HTTP URLs get
// the web loader; unknown extensions fall back to the plain text loader.
func ForPath(path string) interfaces.Loader {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return NewWebLoader()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPdfLoader()
	case ".xlsx":
		return NewXlsxLoader()
	case ".md":
		return NewMarkdownLoader()
	default:
		return NewTxtLoader()
	}
}
