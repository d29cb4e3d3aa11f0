package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/crawler"
	"github.com/docmirror/docmirror/internal/fetch"
	"github.com/docmirror/docmirror/internal/log"
	"github.com/docmirror/docmirror/internal/report"
	"github.com/docmirror/docmirror/internal/rewrite"
	"github.com/docmirror/docmirror/internal/storage"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <base-url>",
		Short: "Mirror a documentation site as markdown",
		Long: `Crawl a documentation website breadth-first from the base URL and write
each page as a markdown file under the output directory. In-site links are
rewritten to relative paths so the mirror is browsable offline.

Crawl state is saved after every batch; re-running the same command resumes
an interrupted crawl. Use --no-resume to start over.

Examples:
  # Mirror a public documentation site
  docmirror crawl https://docs.example.com/guide

  # Limit depth and exclude old versions
  docmirror crawl -d 3 -e '/v[0-9]+/' https://docs.example.com

  # Mirror a private site using a logged-in browser profile
  docmirror crawl --profile-dir ~/.config/chromium/docs https://internal.example.com/docs

Configuration file (.docmirror) example:
  sites:
    docs.example.com:
      excludePattern: "/api/v1/"
      stripSelectors: [".cookie-banner", "#feedback-widget"]
      contentSelector: "main.docs-content"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory for the mirrored markdown tree")
	cmd.Flags().Bool("no-resume", false,
		"Start fresh instead of resuming from saved crawl state")
	cmd.Flags().IntP("workers", "w", config.DefaultMaxWorkers,
		"Maximum concurrent fetches per batch")
	cmd.Flags().IntP("max-depth", "d", 0,
		"Maximum link-hop depth from the base URL (0 = unlimited)")
	cmd.Flags().StringP("exclude", "e", "",
		"Regular expression over full URLs; matches are never crawled")
	cmd.Flags().StringP("profile-dir", "p", "",
		"Browser profile directory with a pre-established login session (enables browser fetching)")
	cmd.Flags().Bool("headful", false,
		"Show the browser window (only with --profile-dir)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Page-load timeout per URL")
	cmd.Flags().Int("min-words", config.DefaultWordCountMin,
		"Discard pages with fewer extracted words than this")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Minimum delay between requests")
	cmd.Flags().Bool("no-robots", false,
		"Ignore robots.txt disallow rules")
	cmd.Flags().Bool("save-every-url", false,
		"Save crawl state after every URL, not just every batch")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for HTTP fetches")
	cmd.Flags().StringP("report", "r", "",
		"Write a markdown crawl report to this file")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docmirror in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Ctrl-C cancels the run; the scheduler saves state before returning,
	// so the next invocation resumes.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runCrawl(ctx, cfg, logger)
}

// buildCrawlConfig creates a Config from cobra command flags and the
// optional config file.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.BaseURL = canonicalBaseURL(args[0])

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noResume, err := cmd.Flags().GetBool("no-resume")
	if err != nil {
		return nil, err
	}
	cfg.Resume = !noResume

	cfg.MaxWorkers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.ExcludePattern, err = cmd.Flags().GetString("exclude")
	if err != nil {
		return nil, err
	}

	cfg.ProfileDir, err = cmd.Flags().GetString("profile-dir")
	if err != nil {
		return nil, err
	}

	cfg.Headful, err = cmd.Flags().GetBool("headful")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.WordCountMin, err = cmd.Flags().GetInt("min-words")
	if err != nil {
		return nil, err
	}

	cfg.RequestDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	cfg.SaveEveryURL, err = cmd.Flags().GetBool("save-every-url")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if err := applySiteConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// canonicalBaseURL trims the trailing slash and lowercases the scheme and
// host, matching the canonical form the crawl engine produces for every
// page URL. Without this a mixed-case host on the command line would never
// prefix-match the normalized URLs derived from it.
func canonicalBaseURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Validate reports the bad base URL with a better message.
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// applySiteConfig layers per-site settings from the .docmirror file onto
// the Config. Flag-provided values win over file values.
//
// If the user explicitly specified a config file path, a missing file is an
// error. If no path was specified, a missing file just means no overrides.
func applySiteConfig(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		// Validate reports the bad base URL with a better message.
		return nil
	}

	cfg.Apply(file.GetSiteConfig(u.Host))
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl wires the crawl engine from configuration and runs it.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	exclude, err := cfg.ExcludeRegexp()
	if err != nil {
		return fmt.Errorf("invalid exclusion pattern: %w", err)
	}

	normalizer, err := crawler.NewNormalizer(cfg.BaseURL, exclude)
	if err != nil {
		return err
	}
	rewriter, err := rewrite.NewRewriter(cfg.BaseURL)
	if err != nil {
		return err
	}

	frontier := crawler.NewFrontier(cfg.StateFilePath(), cfg.MaxDepth)
	if cfg.Resume {
		resumeCrawlState(frontier, logger)
	}

	// The index catalogs what was mirrored for `docmirror status`. The
	// mirror itself never depends on it, so an unopenable index only
	// costs the catalog.
	var index *storage.Index
	if cfg.DBDir != "" {
		index, err = storage.OpenIndex(cfg.DBDir)
		if err != nil {
			logger.Warn("document index unavailable", "error", err)
			index = nil
		} else {
			defer index.Close()
		}
	}

	writer := storage.NewWriter(cfg.OutputDir, cfg.BaseURL, index)

	fetcher, cleanup, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []crawler.SchedulerOption{
		crawler.WithLogger(logger),
		crawler.WithMaxWorkers(cfg.MaxWorkers),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithSaveEveryURL(cfg.SaveEveryURL),
		crawler.WithLoginMarkers(cfg.LoginMarkers),
		crawler.WithRequestDelay(cfg.RequestDelay),
	}
	if cfg.RespectRobots {
		opts = append(opts, crawler.WithGate(fetch.NewRobotsGate(cfg.Timeout, cfg.UserAgent)))
	}

	scheduler := crawler.NewScheduler(frontier, normalizer, crawler.NewExtractor(normalizer), rewriter, fetcher, writer, opts...)

	fmt.Printf("Mirroring %s into %s...\n", cfg.BaseURL, cfg.OutputDir)
	startedAt := time.Now()

	stats, runErr := scheduler.Run(ctx, cfg.BaseURL)
	elapsed := time.Since(startedAt)

	fmt.Printf("\nDone in %s: %d written, %d failed, %d skipped (%d URLs visited, %d pending)\n",
		elapsed.Round(time.Second), stats.PagesWritten, stats.PagesFailed, stats.PagesSkipped,
		frontier.VisitedLen(), frontier.PendingLen())

	if cfg.ReportFile != "" {
		crawlReport := &report.CrawlReport{
			BaseURL:   cfg.BaseURL,
			OutputDir: cfg.OutputDir,
			StartedAt: startedAt,
			Duration:  elapsed,
			Stats:     stats,
			Visited:   frontier.VisitedLen(),
			Pending:   frontier.PendingLen(),
		}
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			crawlReport.Err = runErr.Error()
		}
		if err := writeReportFile(cfg.ReportFile, crawlReport); err != nil {
			logger.Error("failed to write crawl report", "error", err)
		}
	}

	// An interrupt is a normal way to stop a resumable crawl, not a
	// failure.
	if errors.Is(runErr, context.Canceled) {
		fmt.Println("Interrupted; re-run the same command to resume.")
		return nil
	}
	return runErr
}

// resumeCrawlState loads the prior frontier snapshot. A missing snapshot is
// an ordinary fresh start; an unreadable or corrupt one is logged and
// discarded, so a damaged state file can never make a site unmirrorable.
// The next save overwrites it.
func resumeCrawlState(frontier *crawler.Frontier, logger *slog.Logger) {
	err := frontier.Load()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no prior crawl state, starting fresh")
	default:
		logger.Warn("failed to load crawl state, starting fresh", "error", err)
	}
}

// newFetcher builds the fetch capability for the run: a persistent browser
// when a profile directory is configured, plain HTTP otherwise.
func newFetcher(cfg *config.Config) (fetch.Fetcher, func(), error) {
	content := fetch.ContentOptions{
		WordCountMin:    cfg.WordCountMin,
		StripSelectors:  cfg.StripSelectors,
		ContentSelector: cfg.ContentSelector,
	}

	if cfg.ProfileDir != "" {
		browser, err := fetch.NewBrowser(cfg.ProfileDir, cfg.Timeout, content,
			fetch.WithHeadless(!cfg.Headful))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		return browser, browser.Close, nil
	}

	client := fetch.NewClient(cfg.Timeout,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithCache(cfg.CacheEnabled),
		fetch.WithContentOptions(content),
	)
	return client, func() {}, nil
}

// writeReportFile writes the markdown crawl report, creating parent
// directories as needed.
func writeReportFile(path string, crawlReport *report.CrawlReport) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	return report.NewMarkdownWriter(f).Write(crawlReport)
}
