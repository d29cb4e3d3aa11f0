package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Entry is one URL waiting in the frontier, with the depth at which it was
// discovered. The seed sits at depth 1.
type Entry struct {
	// URL is the canonical URL to fetch.
	URL string

	// Depth is the discovery depth: 1 for the seed, 2 for links found on
	// the seed page, and so on.
	Depth int
}

// Frontier owns the crawl's visited set and pending queue and their durable
// snapshot. All mutation goes through its small operation set (Enqueue,
// TakeBatch, Save, Load) behind one mutex; raw iteration is never exposed
// while mutation is possible.
//
// Design decision: TakeBatch marks URLs visited the instant they are
// handed out, not when their fetch completes, because:
//  1. A URL can never be dispatched twice, even across concurrent batches
//  2. The visited/pending invariant holds at every snapshot
//  3. A crash mid-fetch loses at most that batch's pages (at-most-once),
//     which for a mirror is cheaper than fetching pages twice
type Frontier struct {
	// statePath is where the snapshot JSON lives.
	statePath string

	// maxDepth rejects entries discovered deeper than this. 0 = unlimited.
	maxDepth int

	// mu protects the in-memory state below.
	mu sync.Mutex

	// saveMu serializes Save. Every save shares one temp path, so the
	// marshal+write+rename section must never run twice at once; mu alone
	// does not cover it because snapshots are written outside mu to keep
	// Enqueue and TakeBatch from stalling on disk I/O.
	saveMu sync.Mutex

	// visited holds every URL ever dispatched: success, failure, or skip.
	visited map[string]struct{}

	// pending maps queued URLs to their discovery depth.
	pending map[string]int

	// order preserves insertion order of pending so traversal stays
	// breadth-first by discovery.
	order []string
}

// frontierState is the persisted snapshot format. The field names are part
// of the on-disk contract; state files written by older runs must keep
// loading.
type frontierState struct {
	VisitedURLs []string       `json:"visited_urls"`
	Pending     map[string]int `json:"pending"`
}

// NewFrontier creates an empty frontier that snapshots to statePath.
func NewFrontier(statePath string, maxDepth int) *Frontier {
	return &Frontier{
		statePath: statePath,
		maxDepth:  maxDepth,
		visited:   make(map[string]struct{}),
		pending:   make(map[string]int),
	}
}

// Enqueue adds a URL at the given depth. It reports false when the URL is
// already visited, already pending, or past the depth limit.
func (f *Frontier) Enqueue(url string, depth int) bool {
	if f.maxDepth > 0 && depth > f.maxDepth {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.pending[url]; ok {
		return false
	}

	f.pending[url] = depth
	f.order = append(f.order, url)
	return true
}

// TakeBatch removes up to n URLs from the pending queue in discovery order
// and marks them visited. An empty result means the crawl is done.
func (f *Frontier) TakeBatch(n int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n <= 0 || len(f.order) == 0 {
		return nil
	}
	if n > len(f.order) {
		n = len(f.order)
	}

	batch := make([]Entry, 0, n)
	for _, url := range f.order[:n] {
		depth, ok := f.pending[url]
		if !ok {
			continue
		}
		delete(f.pending, url)
		f.visited[url] = struct{}{}
		batch = append(batch, Entry{URL: url, Depth: depth})
	}
	f.order = f.order[n:]
	return batch
}

// PendingLen reports how many URLs are waiting.
func (f *Frontier) PendingLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// VisitedLen reports how many URLs have been dispatched.
func (f *Frontier) VisitedLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// IsVisited reports whether the URL has already been dispatched.
func (f *Frontier) IsVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[url]
	return ok
}

// Save writes the current state durably: marshal to a temp file in the same
// directory, then rename over the target. A crash mid-save leaves the
// previous snapshot intact, and concurrent callers are serialized so the
// published file is always one complete snapshot.
func (f *Frontier) Save() error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.mu.Lock()
	state := frontierState{
		VisitedURLs: make([]string, 0, len(f.visited)),
		Pending:     make(map[string]int, len(f.pending)),
	}
	for url := range f.visited {
		state.VisitedURLs = append(state.VisitedURLs, url)
	}
	for url, depth := range f.pending {
		state.Pending[url] = depth
	}
	f.mu.Unlock()

	sort.Strings(state.VisitedURLs)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal frontier state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.statePath), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := f.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write frontier state: %w", err)
	}
	if err := os.Rename(tmp, f.statePath); err != nil {
		return fmt.Errorf("failed to replace frontier state: %w", err)
	}
	return nil
}

// Load restores a previous snapshot. Loading into a non-empty frontier
// merges: visited wins over pending, so a URL recorded in both (possible
// only across file versions, never within one Save) is not re-fetched.
//
// The error is os.ErrNotExist-wrapped when no snapshot exists; callers
// treat that as a fresh start.
func (f *Frontier) Load() error {
	data, err := os.ReadFile(f.statePath)
	if err != nil {
		return fmt.Errorf("failed to read frontier state: %w", err)
	}

	var state frontierState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse frontier state %s: %w", f.statePath, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, url := range state.VisitedURLs {
		f.visited[url] = struct{}{}
	}

	// JSON objects carry no order, so restored pending URLs are queued in
	// sorted order. Within one resumed run the order is deterministic,
	// which is all breadth-first-by-discovery needs after a restart.
	urls := make([]string, 0, len(state.Pending))
	for url := range state.Pending {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		if _, ok := f.visited[url]; ok {
			continue
		}
		if _, ok := f.pending[url]; ok {
			continue
		}
		f.pending[url] = state.Pending[url]
		f.order = append(f.order, url)
	}
	return nil
}
