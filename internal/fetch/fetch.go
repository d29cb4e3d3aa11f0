package fetch

import "context"

// Result is the outcome of fetching a single page.
// It is owned transiently by the scheduler for the duration of one URL's
// processing and is never persisted.
type Result struct {
	// HTML is the raw page markup as rendered. Link extraction and
	// login-wall classification operate on this.
	HTML string

	// Markdown is the extracted document text in markdown form. This is
	// what gets link-rewritten and written to disk.
	Markdown string

	// Title is the page title, used for the document index.
	Title string

	// WordCount is the number of words in the extracted document text.
	WordCount int

	// StatusCode is the HTTP status, when the fetcher observes one.
	// The browser fetcher leaves it zero.
	StatusCode int
}

// Fetcher turns a URL into a Result. Implementations classify their own
// failures using the error taxonomy in errors.go; the scheduler decides
// retry behavior from that classification alone.
type Fetcher interface {
	// Fetch loads the page at pageURL. The context carries the page-load
	// timeout and run cancellation.
	Fetch(ctx context.Context, pageURL string) (*Result, error)

	// MaxConcurrency reports how many Fetch calls may safely run in
	// parallel. Zero means unbounded. The browser fetcher returns 1
	// because it is a single shared browser context.
	MaxConcurrency() int
}
