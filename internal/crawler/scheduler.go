package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docmirror/docmirror/internal/fetch"
	"github.com/docmirror/docmirror/internal/rewrite"
)

// Document is one crawled page handed to the store.
type Document struct {
	// URL is the canonical page URL.
	URL string

	// Title is the page title.
	Title string

	// Markdown is the link-rewritten document text.
	Markdown string

	// WordCount is the extracted word count.
	WordCount int

	// StatusCode is the HTTP status observed by the fetcher, when any.
	StatusCode int
}

// Store persists crawled documents.
type Store interface {
	Write(ctx context.Context, doc Document) error
}

// Gate decides whether a URL may be fetched at all. The robots.txt gate
// implements it; a nil Gate means no gating.
type Gate interface {
	Check(ctx context.Context, pageURL string) error
}

// Stats summarizes one crawl run.
type Stats struct {
	// PagesWritten counts documents written to the output tree.
	PagesWritten int

	// PagesFailed counts URLs whose fetch failed permanently.
	PagesFailed int

	// PagesSkipped counts URLs skipped by classification: login walls,
	// robots rules, non-HTML responses, near-empty pages.
	PagesSkipped int

	// LinksDiscovered counts URLs newly enqueued during the run.
	LinksDiscovered int
}

// Scheduler drives the crawl: it drains bounded batches from the frontier,
// fetches them with bounded concurrency, retries transient failures, feeds
// results to the rewriter and store, enqueues discovered links, and saves
// frontier state after every batch.
type Scheduler struct {
	frontier   *Frontier
	normalizer *Normalizer
	extractor  *Extractor
	rewriter   *rewrite.Rewriter
	fetcher    fetch.Fetcher
	store      Store
	gate       Gate
	logger     *slog.Logger

	// maxWorkers bounds batch size and fetch concurrency.
	maxWorkers int

	// maxDepth stops link extraction at this discovery depth. 0 = unlimited.
	maxDepth int

	// saveEveryURL saves frontier state after each processed URL, not just
	// after each batch. Slower, but a crash loses at most one page.
	saveEveryURL bool

	// loginMarkers are substrings whose presence in raw HTML classifies
	// the page as a login wall.
	loginMarkers []string

	// maxAttempts bounds fetch attempts per URL for transient failures.
	maxAttempts int

	// backoffBase scales the linear retry backoff: attempt n sleeps
	// n*backoffBase before retrying.
	backoffBase time.Duration

	// limiter paces fetches for politeness. Nil means no pacing.
	limiter *rate.Limiter

	// statsMu protects stats.
	statsMu sync.Mutex
	stats   Stats
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMaxWorkers bounds batch size and concurrent fetches.
func WithMaxWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// WithMaxDepth stops link discovery past this depth. 0 = unlimited.
func WithMaxDepth(depth int) SchedulerOption {
	return func(s *Scheduler) {
		s.maxDepth = depth
	}
}

// WithSaveEveryURL saves frontier state after every processed URL.
func WithSaveEveryURL(enabled bool) SchedulerOption {
	return func(s *Scheduler) {
		s.saveEveryURL = enabled
	}
}

// WithLoginMarkers sets the substrings that classify a page as a login wall.
func WithLoginMarkers(markers []string) SchedulerOption {
	return func(s *Scheduler) {
		s.loginMarkers = markers
	}
}

// WithGate sets the pre-fetch gate (robots.txt).
func WithGate(gate Gate) SchedulerOption {
	return func(s *Scheduler) {
		s.gate = gate
	}
}

// WithRequestDelay paces fetches at most one per delay interval.
func WithRequestDelay(delay time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if delay > 0 {
			s.limiter = rate.NewLimiter(rate.Every(delay), 1)
		}
	}
}

// WithRetry tunes the transient-failure retry policy. Tests shrink the
// backoff; production keeps the defaults.
func WithRetry(maxAttempts int, backoffBase time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if backoffBase >= 0 {
			s.backoffBase = backoffBase
		}
	}
}

// NewScheduler wires a Scheduler from its collaborators.
func NewScheduler(
	frontier *Frontier,
	normalizer *Normalizer,
	extractor *Extractor,
	rewriter *rewrite.Rewriter,
	fetcher fetch.Fetcher,
	store Store,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		frontier:    frontier,
		normalizer:  normalizer,
		extractor:   extractor,
		rewriter:    rewriter,
		fetcher:     fetcher,
		store:       store,
		logger:      slog.Default(),
		maxWorkers:  5,
		maxAttempts: 3,
		backoffBase: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run crawls from seedURL until the frontier drains or the context is
// cancelled. The returned stats cover this run only.
//
// The run aborts early in exactly one non-context case: the fetcher reports
// it can serve no further URLs. Frontier state is saved before returning on
// every path, so an aborted run resumes where it stopped.
func (s *Scheduler) Run(ctx context.Context, seedURL string) (Stats, error) {
	seed, ok := s.normalizer.Normalize(seedURL, seedURL)
	if !ok {
		return Stats{}, fmt.Errorf("seed URL %q is outside the crawl scope", seedURL)
	}

	// On a fresh start this seeds the crawl; on resume the seed is already
	// visited or pending and Enqueue is a no-op.
	if s.frontier.Enqueue(seed, 1) {
		s.logger.Info("seeded crawl", "url", seed)
	} else {
		s.logger.Info("resuming crawl",
			"visited", s.frontier.VisitedLen(),
			"pending", s.frontier.PendingLen())
	}

	for {
		if err := ctx.Err(); err != nil {
			s.saveFrontier()
			return s.snapshotStats(), err
		}

		batch := s.frontier.TakeBatch(s.maxWorkers)
		if len(batch) == 0 {
			break
		}

		err := s.runBatch(ctx, batch)

		// Save after every batch regardless of outcome. A save failure is
		// logged, not fatal: losing a snapshot costs re-fetching at most
		// one batch on the next resume.
		s.saveFrontier()

		if err != nil {
			return s.snapshotStats(), err
		}
	}

	s.logger.Info("crawl complete",
		"visited", s.frontier.VisitedLen(),
		"written", s.snapshotStats().PagesWritten)
	return s.snapshotStats(), nil
}

// runBatch fetches one batch with bounded concurrency. Only fatal fetcher
// faults propagate as errors; per-URL failures are absorbed into stats.
func (s *Scheduler) runBatch(ctx context.Context, batch []Entry) error {
	limit := s.maxWorkers
	if mc := s.fetcher.MaxConcurrency(); mc > 0 && mc < limit {
		limit = mc
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, entry := range batch {
		g.Go(func() error {
			return s.processEntry(gctx, entry)
		})
	}
	return g.Wait()
}

// processEntry handles one URL end to end: gate, fetch with retry,
// login-wall classification, link rewrite, store, link discovery.
func (s *Scheduler) processEntry(ctx context.Context, entry Entry) error {
	logger := s.logger.With("url", entry.URL, "depth", entry.Depth)

	if s.gate != nil {
		if err := s.gate.Check(ctx, entry.URL); err != nil {
			if fetch.IsSkip(err) {
				logger.Info("skipping URL", "reason", "robots.txt disallows it")
				s.addSkipped()
				return nil
			}
			logger.Warn("robots check failed", "error", err)
		}
	}

	result, err := s.fetchWithRetry(ctx, entry.URL, logger)
	if err != nil {
		switch {
		case fetch.IsFatal(err):
			logger.Error("fetcher can serve no further URLs, aborting", "error", err)
			return err
		case fetch.IsSkip(err):
			logger.Info("skipping URL", "reason", err.Error())
			s.addSkipped()
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			logger.Warn("fetch failed", "error", err, "hint", fetch.FailureHint(err))
			s.addFailed()
			return nil
		}
	}

	if marker, found := s.loginWall(result.HTML); found {
		logger.Info("skipping URL", "reason", "login wall detected", "marker", marker)
		s.addSkipped()
		return nil
	}

	doc := Document{
		URL:        entry.URL,
		Title:      result.Title,
		Markdown:   s.rewriter.Rewrite(result.Markdown, entry.URL),
		WordCount:  result.WordCount,
		StatusCode: result.StatusCode,
	}
	if err := s.store.Write(ctx, doc); err != nil {
		logger.Warn("failed to store document", "error", err)
		s.addFailed()
		return nil
	}
	s.addWritten()
	logger.Info("saved page", "title", result.Title, "words", result.WordCount)

	s.discoverLinks(result.HTML, entry)

	if s.saveEveryURL {
		s.saveFrontier()
	}
	return nil
}

// fetchWithRetry fetches one URL, retrying transient failures with a linear
// backoff. Attempt n sleeps n*backoffBase before the next try; all other
// failures return immediately.
func (s *Scheduler) fetchWithRetry(ctx context.Context, pageURL string, logger *slog.Logger) (*fetch.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result, err := s.fetcher.Fetch(ctx, pageURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !fetch.IsTransient(err) || attempt == s.maxAttempts {
			return nil, err
		}

		delay := time.Duration(attempt) * s.backoffBase
		logger.Warn("transient fetch failure, retrying",
			"attempt", attempt, "max_attempts", s.maxAttempts,
			"backoff", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// discoverLinks extracts and enqueues the page's links at depth+1, unless
// the page already sits at the depth limit.
func (s *Scheduler) discoverLinks(htmlContent string, entry Entry) {
	if s.maxDepth > 0 && entry.Depth >= s.maxDepth {
		return
	}

	for _, link := range s.extractor.Extract(htmlContent, entry.URL) {
		if s.frontier.Enqueue(link, entry.Depth+1) {
			s.addDiscovered()
		}
	}
}

// loginWall reports whether the raw page markup carries a login-wall
// marker. Private sites serve a login form with a 200 status when the
// session has expired; writing that out would silently corrupt the mirror.
func (s *Scheduler) loginWall(htmlContent string) (string, bool) {
	for _, marker := range s.loginMarkers {
		if strings.Contains(htmlContent, marker) {
			return marker, true
		}
	}
	return "", false
}

// saveFrontier persists frontier state, logging failures instead of
// propagating them.
func (s *Scheduler) saveFrontier() {
	if err := s.frontier.Save(); err != nil {
		s.logger.Warn("failed to save crawl state", "error", err)
	}
}

// snapshotStats returns a copy of the current stats.
func (s *Scheduler) snapshotStats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Scheduler) addWritten() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.PagesWritten++
}

func (s *Scheduler) addFailed() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.PagesFailed++
}

func (s *Scheduler) addSkipped() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.PagesSkipped++
}

func (s *Scheduler) addDiscovered() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.LinksDiscovered++
}
