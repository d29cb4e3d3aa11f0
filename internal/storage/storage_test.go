package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docmirror/docmirror/internal/crawler"
)

func TestWriter_Write(t *testing.T) {
	t.Parallel()

	const base = "https://docs.example.com/guide"

	t.Run("writes the document at its derived path", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		w := NewWriter(outputDir, base, nil)

		doc := crawler.Document{
			URL:      base + "/install",
			Title:    "Install",
			Markdown: "# Install\n\nRun the installer.",
		}
		if err := w.Write(context.Background(), doc); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}

		data, err := os.ReadFile(filepath.Join(outputDir, "install", "index.md"))
		if err != nil {
			t.Fatalf("output file missing: %v", err)
		}
		if string(data) != doc.Markdown {
			t.Errorf("file content = %q, want %q", data, doc.Markdown)
		}
	})

	t.Run("overwrites a prior file for the same URL", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		w := NewWriter(outputDir, base, nil)
		ctx := context.Background()

		first := crawler.Document{URL: base, Markdown: "old"}
		second := crawler.Document{URL: base, Markdown: "new"}
		if err := w.Write(ctx, first); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}
		if err := w.Write(ctx, second); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}

		data, err := os.ReadFile(filepath.Join(outputDir, "index.md"))
		if err != nil {
			t.Fatalf("output file missing: %v", err)
		}
		if string(data) != "new" {
			t.Errorf("file content = %q, want %q", data, "new")
		}
	})

	t.Run("records the document in the index", func(t *testing.T) {
		t.Parallel()

		idx, err := OpenIndex(t.TempDir())
		if err != nil {
			t.Fatalf("OpenIndex() error = %v, want nil", err)
		}
		defer idx.Close()

		w := NewWriter(t.TempDir(), base, idx)
		ctx := context.Background()

		doc := crawler.Document{
			URL:        base + "/api",
			Title:      "API Reference",
			Markdown:   "# API",
			WordCount:  120,
			StatusCode: 200,
		}
		if err := w.Write(ctx, doc); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}

		record, err := idx.Get(ctx, doc.URL)
		if err != nil {
			t.Fatalf("Get() error = %v, want nil", err)
		}
		if record == nil {
			t.Fatal("Get() = nil, want record")
		}
		if record.Path != "api/index.md" {
			t.Errorf("Path = %q, want api/index.md", record.Path)
		}
		if record.Title != "API Reference" {
			t.Errorf("Title = %q, want API Reference", record.Title)
		}
		if record.WordCount != 120 {
			t.Errorf("WordCount = %d, want 120", record.WordCount)
		}
	})
}

func TestIndex(t *testing.T) {
	t.Parallel()

	t.Run("upsert replaces the record for a URL", func(t *testing.T) {
		t.Parallel()

		idx, err := OpenIndex(t.TempDir())
		if err != nil {
			t.Fatalf("OpenIndex() error = %v, want nil", err)
		}
		defer idx.Close()
		ctx := context.Background()

		record := IndexRecord{URL: "https://docs.example.com/a", Path: "a/index.md", Title: "Old", WordCount: 10}
		if err := idx.Upsert(ctx, record); err != nil {
			t.Fatalf("Upsert() error = %v, want nil", err)
		}

		record.Title = "New"
		record.WordCount = 20
		if err := idx.Upsert(ctx, record); err != nil {
			t.Fatalf("Upsert() error = %v, want nil", err)
		}

		got, err := idx.Get(ctx, record.URL)
		if err != nil {
			t.Fatalf("Get() error = %v, want nil", err)
		}
		if got.Title != "New" || got.WordCount != 20 {
			t.Errorf("Get() = %+v, want updated record", got)
		}

		records, err := idx.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v, want nil", err)
		}
		if len(records) != 1 {
			t.Errorf("List() returned %d records, want 1 (upsert, not insert)", len(records))
		}
	})

	t.Run("get of an unknown URL returns nil without error", func(t *testing.T) {
		t.Parallel()

		idx, err := OpenIndex(t.TempDir())
		if err != nil {
			t.Fatalf("OpenIndex() error = %v, want nil", err)
		}
		defer idx.Close()

		got, err := idx.Get(context.Background(), "https://docs.example.com/never")
		if err != nil {
			t.Fatalf("Get() error = %v, want nil", err)
		}
		if got != nil {
			t.Errorf("Get() = %+v, want nil", got)
		}
	})

	t.Run("summarize aggregates counts and words", func(t *testing.T) {
		t.Parallel()

		idx, err := OpenIndex(t.TempDir())
		if err != nil {
			t.Fatalf("OpenIndex() error = %v, want nil", err)
		}
		defer idx.Close()
		ctx := context.Background()

		for i, words := range []int{100, 250} {
			record := IndexRecord{
				URL:       "https://docs.example.com/p" + string(rune('a'+i)),
				Path:      "p" + string(rune('a'+i)) + "/index.md",
				WordCount: words,
			}
			if err := idx.Upsert(ctx, record); err != nil {
				t.Fatalf("Upsert() error = %v, want nil", err)
			}
		}

		summary, err := idx.Summarize(ctx)
		if err != nil {
			t.Fatalf("Summarize() error = %v, want nil", err)
		}
		if summary.Documents != 2 {
			t.Errorf("Documents = %d, want 2", summary.Documents)
		}
		if summary.TotalWords != 350 {
			t.Errorf("TotalWords = %d, want 350", summary.TotalWords)
		}
		if summary.LastFetched.IsZero() {
			t.Error("LastFetched is zero, want a timestamp")
		}
	})

	t.Run("empty catalog summarizes to zero", func(t *testing.T) {
		t.Parallel()

		idx, err := OpenIndex(t.TempDir())
		if err != nil {
			t.Fatalf("OpenIndex() error = %v, want nil", err)
		}
		defer idx.Close()

		summary, err := idx.Summarize(context.Background())
		if err != nil {
			t.Fatalf("Summarize() error = %v, want nil", err)
		}
		if summary.Documents != 0 || summary.TotalWords != 0 {
			t.Errorf("Summarize() = %+v, want zeros", summary)
		}
		if !summary.LastFetched.IsZero() {
			t.Errorf("LastFetched = %v, want zero", summary.LastFetched)
		}
	})

	t.Run("list orders records by path", func(t *testing.T) {
		t.Parallel()

		idx, err := OpenIndex(t.TempDir())
		if err != nil {
			t.Fatalf("OpenIndex() error = %v, want nil", err)
		}
		defer idx.Close()
		ctx := context.Background()

		paths := []string{"zebra/index.md", "alpha/index.md", "mid/index.md"}
		for i, p := range paths {
			record := IndexRecord{
				URL:  "https://docs.example.com/u" + string(rune('a'+i)),
				Path: p,
			}
			if err := idx.Upsert(ctx, record); err != nil {
				t.Fatalf("Upsert() error = %v, want nil", err)
			}
		}

		records, err := idx.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v, want nil", err)
		}
		want := []string{"alpha/index.md", "mid/index.md", "zebra/index.md"}
		for i, record := range records {
			if record.Path != want[i] {
				t.Errorf("List()[%d].Path = %q, want %q", i, record.Path, want[i])
			}
		}
	})
}
