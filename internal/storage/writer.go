package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docmirror/docmirror/internal/crawler"
	"github.com/docmirror/docmirror/internal/rewrite"
)

// Writer persists crawled documents as markdown files under the output root
// and records each one in the index. It implements the crawl engine's Store
// interface.
type Writer struct {
	// outputDir is the root of the mirrored tree.
	outputDir string

	// baseURL anchors URL-to-path derivation.
	baseURL string

	// index catalogs written documents. Nil disables indexing; the mirror
	// itself never depends on it.
	index *Index
}

// NewWriter creates a Writer rooted at outputDir.
func NewWriter(outputDir, baseURL string, index *Index) *Writer {
	return &Writer{
		outputDir: outputDir,
		baseURL:   baseURL,
		index:     index,
	}
}

// Write stores one document, overwriting any prior file for the same URL.
// The file path comes from the same derivation the link rewriter uses, so
// rewritten links always resolve to files this method creates.
func (w *Writer) Write(ctx context.Context, doc crawler.Document) error {
	relPath := rewrite.OutputPath(doc.URL, w.baseURL)
	fullPath := filepath.Join(w.outputDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", doc.URL, err)
	}
	if err := os.WriteFile(fullPath, []byte(doc.Markdown), 0o600); err != nil {
		return fmt.Errorf("failed to write document for %s: %w", doc.URL, err)
	}

	if w.index == nil {
		return nil
	}

	// The document is on disk; an index failure must not undo that.
	// The caller logs it and the mirror stays intact.
	if err := w.index.Upsert(ctx, IndexRecord{
		URL:        doc.URL,
		Path:       relPath,
		Title:      doc.Title,
		StatusCode: doc.StatusCode,
		WordCount:  doc.WordCount,
	}); err != nil {
		return fmt.Errorf("document written but not indexed: %w", err)
	}
	return nil
}
