package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Client fetches pages over plain HTTP. It is the default fetch capability
// for public documentation sites.
//
// Design decision: We require nothing beyond net/http for public sites
// because documentation pages that need JavaScript to render are the
// exception; when they are the rule, the browser fetcher handles them.
// Keeping the HTTP path browser-free makes parallel batches cheap.
type Client struct {
	// hc is the underlying HTTP client, configured with the page timeout.
	hc *http.Client

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64

	// cacheEnabled controls whether intermediate caches may serve
	// responses. When off, a no-cache directive is sent.
	cacheEnabled bool

	// content configures markup-to-document extraction.
	content ContentOptions
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize caps the response body size read per page.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithCache enables or disables intermediate HTTP caching.
func WithCache(enabled bool) ClientOption {
	return func(c *Client) {
		c.cacheEnabled = enabled
	}
}

// WithContentOptions sets the markup-to-document extraction options.
func WithContentOptions(opts ContentOptions) ClientOption {
	return func(c *Client) {
		c.content = opts
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests and by
// callers that need custom transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient creates an HTTP fetch client with the given page timeout.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				return nil
			},
		},
		userAgent:   "docmirror/1.0",
		maxBodySize: 10 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch loads pageURL and extracts its document text.
func (c *Client) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request for %s: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if !c.cacheEnabled {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	// Decode the body to UTF-8 before parsing. Documentation sites in the
	// wild still serve legacy encodings.
	limited := io.LimitReader(resp.Body, c.maxBodySize)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response for %s: %w", pageURL, err)
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s: %w", pageURL, err)
	}

	result, err := buildResult(string(body), pageURL, c.content)
	if err != nil {
		return nil, err
	}
	result.StatusCode = resp.StatusCode
	return result, nil
}

// MaxConcurrency reports unbounded concurrency: each Fetch call uses its own
// connection from the pool.
func (c *Client) MaxConcurrency() int {
	return 0
}

// classifyTransportError maps transport-level failures onto the fetch error
// taxonomy. Timeouts and navigation errors are permanent for the URL;
// connection resets mid-run look like an invalidated session and are worth
// one retry cycle.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("page load timeout: %w", context.DeadlineExceeded)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("page load timeout: %w", context.DeadlineExceeded)
	}

	msg := err.Error()
	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe") {
		return fmt.Errorf("%w: %s", ErrSessionInvalidated, msg)
	}

	return fmt.Errorf("navigation error: %w", err)
}
