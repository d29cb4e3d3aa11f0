package config

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Where applicable these mirror the behavior of a polite documentation
// crawler: moderate concurrency, short request pacing, and a small
// word-count floor to avoid persisting near-empty pages.
const (
	// DefaultOutputDir is where generated markdown documents are written
	// when the user does not specify an output directory.
	DefaultOutputDir = "output"

	// DefaultMaxWorkers is the number of URLs processed per batch. Five
	// workers keeps throughput reasonable without overwhelming a single
	// documentation origin.
	DefaultMaxWorkers = 5

	// DefaultTimeout is the per-page load timeout. Documentation pages are
	// usually fast, but JavaScript-rendered sites can take tens of seconds
	// to settle.
	DefaultTimeout = 30 * time.Second

	// DefaultWordCountMin is the minimum number of words a page must
	// contain to be persisted. Near-empty pages are usually redirects,
	// search shells, or error pages.
	DefaultWordCountMin = 10

	// DefaultRequestDelay is the pause between requests within a batch when
	// the fetch capability is a shared browser context. It doubles as a
	// politeness setting toward the origin.
	DefaultRequestDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies docmirror in HTTP requests. A descriptive
	// User-Agent lets site operators identify crawler traffic in their logs.
	DefaultUserAgent = "docmirror/1.0 (+https://github.com/docmirror/docmirror)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 10MB is generous for HTML documentation while bounding memory use.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// StateFileName is the frontier snapshot file written under the output
	// directory. A fresh process loads it to resume an interrupted crawl.
	StateFileName = "crawler_state.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "docmirror"
)

// DefaultLoginMarkers are substrings whose presence in raw page markup
// classifies the page as a login wall rather than documentation. Sites can
// override these via the config file.
var DefaultLoginMarkers = []string{"Log In", "Login", "Sign In"}

// Config holds all configuration options for a crawl run.
// It is populated from CLI flags and the optional config file, validated
// once, and passed to every component explicitly. There is no ambient
// singleton: one Config belongs to one crawl run.
type Config struct {
	// BaseURL is the entry URL of the documentation site. Crawling never
	// leaves the base URL's domain, and only paths under the base URL's
	// path prefix are followed.
	BaseURL string

	// OutputDir is the directory where markdown documents and the frontier
	// state file are written.
	OutputDir string

	// Resume controls whether a prior frontier snapshot is loaded at
	// startup. Default is on; disabling it starts a fresh crawl without
	// touching already-written documents.
	Resume bool

	// MaxWorkers bounds how many URLs are taken per batch and, for fetchers
	// that support it, how many fetches run concurrently. It must not
	// exceed the fetch capability's supported concurrency: a shared browser
	// context serializes within the batch regardless of this value.
	MaxWorkers int

	// MaxDepth limits link-hop distance from the seed. Depth 1 is the seed
	// itself. Zero means unlimited.
	MaxDepth int

	// ExcludePattern is a regular expression over full URLs; matching URLs
	// are never enqueued. Empty disables exclusion.
	ExcludePattern string

	// ProfileDir is a pre-established browser profile directory holding the
	// login state for private sites. When set, pages are fetched through a
	// persistent headless browser context instead of plain HTTP.
	ProfileDir string

	// Headful shows the browser window when a profile directory is used.
	// Some login-protected sites behave differently under headless
	// rendering, and a visible window helps debug session problems.
	Headful bool

	// Timeout is the page-load timeout for each fetch.
	Timeout time.Duration

	// WordCountMin is the minimum word count below which a fetched page is
	// discarded instead of persisted.
	WordCountMin int

	// RequestDelay is the pause between requests when fetches within a
	// batch are serialized (shared browser context).
	RequestDelay time.Duration

	// RespectRobots controls whether robots.txt disallow rules are honored.
	RespectRobots bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables debug-level log output.
	Verbose bool

	// SaveEveryURL persists frontier state after every processed URL in
	// addition to the unconditional post-batch save. Favors crash-safety
	// over I/O volume.
	SaveEveryURL bool

	// DBDir is the directory holding the document index database. Defaults
	// to the XDG data directory. Empty disables the index.
	DBDir string

	// ReportFile, when set, receives a markdown crawl summary after the
	// run completes.
	ReportFile string

	// ConfigFilePath is an explicit path to the .docmirror config file.
	// Empty triggers the default search (current directory, then home).
	ConfigFilePath string

	// LoginMarkers are substrings that classify a fetched page as a login
	// wall. Populated from DefaultLoginMarkers unless overridden.
	LoginMarkers []string

	// StripSelectors are CSS selectors removed from fetched pages before
	// content extraction (headers, footers, overlay chrome).
	StripSelectors []string

	// ContentSelector, when set, restricts content extraction to the first
	// matching element instead of the readability heuristic.
	ContentSelector string

	// CacheEnabled lets the fetch capability reuse its own cache between
	// requests. The frontier's visited set is unaffected.
	CacheEnabled bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero (timeouts, worker counts). The
// constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:     DefaultOutputDir,
		Resume:        true,
		MaxWorkers:    DefaultMaxWorkers,
		Timeout:       DefaultTimeout,
		WordCountMin:  DefaultWordCountMin,
		RequestDelay:  DefaultRequestDelay,
		RespectRobots: true,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		DBDir:         XDGDataDir(),
		LoginMarkers:  append([]string(nil), DefaultLoginMarkers...),
	}
}

// XDGDataDir returns the XDG data directory for docmirror.
// On Linux: ~/.local/share/docmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateFilePath returns the frontier snapshot path under the output
// directory.
func (c *Config) StateFilePath() string {
	return filepath.Join(c.OutputDir, StateFileName)
}

// ExcludeRegexp compiles the exclusion pattern. Returns nil when no pattern
// is configured. Validate has already checked that the pattern compiles, so
// callers after validation can ignore the error.
func (c *Config) ExcludeRegexp() (*regexp.Regexp, error) {
	if c.ExcludePattern == "" {
		return nil, nil
	}
	return regexp.Compile(c.ExcludePattern)
}

// Validate checks the configuration and returns a specific error describing
// the first problem found. It is called once after flag parsing, before any
// crawling starts; configuration errors are the only errors that abort a run
// before the first fetch.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidBaseURL
	}

	if c.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ExcludePattern != "" {
		if _, err := regexp.Compile(c.ExcludePattern); err != nil {
			return ErrInvalidExcludePattern
		}
	}

	if c.ProfileDir != "" {
		info, err := os.Stat(c.ProfileDir)
		if err != nil || !info.IsDir() {
			return ErrInvalidProfileDir
		}
	}

	return nil
}
