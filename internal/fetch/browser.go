package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser fetches pages through a persistent headless-browser context.
// It exists for private documentation sites: the profile directory carries a
// pre-established login session, so pages render exactly as they would for
// the signed-in user.
//
// The browser is one shared context. Fetch calls are serialized internally,
// and MaxConcurrency reports 1 so the scheduler paces batches instead of
// issuing parallel fetches that would contend for the same context.
type Browser struct {
	// allocCtx owns the browser process.
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// browserCtx is the shared browser context tabs are derived from.
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// timeout is the per-page load timeout.
	timeout time.Duration

	// content configures markup-to-document extraction.
	content ContentOptions

	// mu serializes tab usage. One shared browser context does not
	// tolerate concurrent navigations from multiple goroutines.
	mu sync.Mutex
}

// BrowserOption configures a Browser.
type BrowserOption func(*browserSettings)

// browserSettings collects construction-time knobs.
type browserSettings struct {
	headless bool
}

// WithHeadless controls whether the browser window is shown. Headful mode
// is useful for watching a crawl against an authenticated site, and some
// login-protected sites behave differently under headless rendering.
func WithHeadless(headless bool) BrowserOption {
	return func(s *browserSettings) {
		s.headless = headless
	}
}

// NewBrowser starts a browser backed by the given profile directory.
// The profile must already exist and contain the login state; docmirror
// never performs logins itself.
func NewBrowser(profileDir string, timeout time.Duration, content ContentOptions, opts ...BrowserOption) (*Browser, error) {
	settings := &browserSettings{headless: true}
	for _, opt := range opts {
		opt(settings)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", settings.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser process eagerly so configuration errors (missing
	// binary, corrupt profile) surface before the crawl begins rather than
	// on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Browser{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       timeout,
		content:       content,
	}, nil
}

// Fetch renders pageURL in a fresh tab and extracts its document text.
func (b *Browser) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.browserCtx.Err() != nil {
		return nil, ErrFetcherClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()

	runCtx, runCancel := context.WithTimeout(tabCtx, b.timeout)
	defer runCancel()

	var rawHTML string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &rawHTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, b.classifyError(err)
	}

	return buildResult(rawHTML, pageURL, b.content)
}

// MaxConcurrency reports 1: a single shared browser context.
func (b *Browser) MaxConcurrency() int {
	return 1
}

// Close shuts the browser down. Safe to call once at end of run.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// classifyError maps chromedp failures onto the fetch error taxonomy.
// A dead browser process is fatal; a closed tab or cancelled target is the
// transient session-invalidated signature; a deadline is a permanent
// timeout for the URL.
func (b *Browser) classifyError(err error) error {
	if b.browserCtx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrFetcherClosed, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("page load timeout: %w", context.DeadlineExceeded)
	}

	msg := err.Error()
	if strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "session closed") ||
		strings.Contains(msg, "browser has been closed") {
		return fmt.Errorf("%w: %s", ErrSessionInvalidated, msg)
	}

	return fmt.Errorf("navigation error: %w", err)
}
