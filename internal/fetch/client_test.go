package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("extracts title, markdown and word count from a page", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>Getting Started</title></head>
<body><main><h1>Getting Started</h1>
<p>Install the tool and run the init command to create a workspace.</p>
<p>See the <a href="/guide/config">configuration guide</a> for details.</p>
</main></body></html>`))
		}))
		defer srv.Close()

		client := NewClient(5 * time.Second)
		result, err := client.Fetch(context.Background(), srv.URL+"/docs/start")
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}

		if result.Title != "Getting Started" {
			t.Errorf("Title = %q, want %q", result.Title, "Getting Started")
		}
		if result.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", result.StatusCode, http.StatusOK)
		}
		if !strings.Contains(result.Markdown, "# Getting Started") {
			t.Errorf("Markdown missing heading, got:\n%s", result.Markdown)
		}
		if !strings.Contains(result.Markdown, "[configuration guide]("+srv.URL+"/guide/config)") {
			t.Errorf("Markdown link not resolved to absolute URL, got:\n%s", result.Markdown)
		}
		if result.WordCount == 0 {
			t.Error("WordCount = 0, want > 0")
		}
	})

	t.Run("returns StatusError for non-success responses", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewClient(5 * time.Second)
		_, err := client.Fetch(context.Background(), srv.URL+"/missing")

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("Fetch() error = %v, want *StatusError", err)
		}
		if statusErr.Code != http.StatusNotFound {
			t.Errorf("StatusError.Code = %d, want %d", statusErr.Code, http.StatusNotFound)
		}
	})

	t.Run("rejects non-HTML content types", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		}))
		defer srv.Close()

		client := NewClient(5 * time.Second)
		_, err := client.Fetch(context.Background(), srv.URL+"/manual.pdf")
		if !errors.Is(err, ErrNotHTML) {
			t.Errorf("Fetch() error = %v, want ErrNotHTML", err)
		}
	})

	t.Run("rejects pages below the word-count floor", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><p>Stub page.</p></body></html>`))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, WithContentOptions(ContentOptions{WordCountMin: 10}))
		_, err := client.Fetch(context.Background(), srv.URL+"/stub")
		if !errors.Is(err, ErrContentTooShort) {
			t.Errorf("Fetch() error = %v, want ErrContentTooShort", err)
		}
	})

	t.Run("sends configured user agent and no-cache directive", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCache string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCache = r.Header.Get("Cache-Control")
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><p>hello world page with enough words here</p></body></html>`))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, WithUserAgent("docmirror-test/1.0"))
		if _, err := client.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if gotUA != "docmirror-test/1.0" {
			t.Errorf("User-Agent = %q, want %q", gotUA, "docmirror-test/1.0")
		}
		if gotCache != "no-cache" {
			t.Errorf("Cache-Control = %q, want %q", gotCache, "no-cache")
		}
	})

	t.Run("content selector restricts extraction", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>
<nav><p>Navigation links that must not appear in output text.</p></nav>
<article class="docs"><p>Only the article body belongs in the mirror output.</p></article>
</body></html>`))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, WithContentOptions(ContentOptions{
			ContentSelector: "article.docs",
		}))
		result, err := client.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if strings.Contains(result.Markdown, "Navigation links") {
			t.Errorf("Markdown contains navigation text, got:\n%s", result.Markdown)
		}
		if !strings.Contains(result.Markdown, "article body") {
			t.Errorf("Markdown missing article text, got:\n%s", result.Markdown)
		}
	})

	t.Run("strip selectors remove matching elements", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><main>
<div class="cookie-banner"><p>Accept our cookies before reading anything.</p></div>
<p>The actual documentation text survives the stripping pass intact.</p>
</main></body></html>`))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, WithContentOptions(ContentOptions{
			StripSelectors: []string{".cookie-banner"},
		}))
		result, err := client.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if strings.Contains(result.Markdown, "cookies") {
			t.Errorf("Markdown contains stripped banner text, got:\n%s", result.Markdown)
		}
	})
}

func TestClient_MaxConcurrency(t *testing.T) {
	t.Parallel()

	client := NewClient(time.Second)
	if got := client.MaxConcurrency(); got != 0 {
		t.Errorf("MaxConcurrency() = %d, want 0 (unbounded)", got)
	}
}
