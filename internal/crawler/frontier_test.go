package crawler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFrontier_EnqueueAndTakeBatch(t *testing.T) {
	t.Parallel()

	t.Run("no URL is dispatched twice", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(filepath.Join(t.TempDir(), "state.json"), 0)

		urls := []string{
			"https://docs.example.com/a",
			"https://docs.example.com/b",
			"https://docs.example.com/c",
		}
		for _, u := range urls {
			if !f.Enqueue(u, 1) {
				t.Fatalf("Enqueue(%q) = false, want true", u)
			}
		}

		// Re-enqueueing pending URLs must fail.
		for _, u := range urls {
			if f.Enqueue(u, 2) {
				t.Errorf("Enqueue(%q) = true for pending URL, want false", u)
			}
		}

		dispatched := make(map[string]bool)
		for {
			batch := f.TakeBatch(2)
			if len(batch) == 0 {
				break
			}
			for _, entry := range batch {
				if dispatched[entry.URL] {
					t.Fatalf("URL %q dispatched twice", entry.URL)
				}
				dispatched[entry.URL] = true
			}
		}

		if len(dispatched) != len(urls) {
			t.Errorf("dispatched %d URLs, want %d", len(dispatched), len(urls))
		}

		// Visited URLs must never re-enter the queue.
		for _, u := range urls {
			if f.Enqueue(u, 1) {
				t.Errorf("Enqueue(%q) = true for visited URL, want false", u)
			}
		}
	})

	t.Run("batches preserve discovery order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(filepath.Join(t.TempDir(), "state.json"), 0)
		f.Enqueue("https://docs.example.com/first", 1)
		f.Enqueue("https://docs.example.com/second", 1)
		f.Enqueue("https://docs.example.com/third", 2)

		batch := f.TakeBatch(2)
		if len(batch) != 2 {
			t.Fatalf("TakeBatch(2) returned %d entries, want 2", len(batch))
		}
		if batch[0].URL != "https://docs.example.com/first" {
			t.Errorf("batch[0] = %q, want first", batch[0].URL)
		}
		if batch[1].URL != "https://docs.example.com/second" {
			t.Errorf("batch[1] = %q, want second", batch[1].URL)
		}

		rest := f.TakeBatch(10)
		if len(rest) != 1 || rest[0].URL != "https://docs.example.com/third" {
			t.Errorf("remaining batch = %v, want just third", rest)
		}
		if rest[0].Depth != 2 {
			t.Errorf("Depth = %d, want 2", rest[0].Depth)
		}
	})

	t.Run("depth gating rejects entries past the limit", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(filepath.Join(t.TempDir(), "state.json"), 2)

		if !f.Enqueue("https://docs.example.com/seed", 1) {
			t.Fatal("Enqueue(depth 1) = false, want true")
		}
		if !f.Enqueue("https://docs.example.com/child", 2) {
			t.Fatal("Enqueue(depth 2) = false, want true")
		}
		if f.Enqueue("https://docs.example.com/grandchild", 3) {
			t.Error("Enqueue(depth 3) = true past max depth 2, want false")
		}

		for _, entry := range f.TakeBatch(10) {
			if entry.Depth > 2 {
				t.Errorf("URL %q dispatched at depth %d past limit", entry.URL, entry.Depth)
			}
		}
	})

	t.Run("zero max depth means unlimited", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(filepath.Join(t.TempDir(), "state.json"), 0)
		if !f.Enqueue("https://docs.example.com/deep", 100) {
			t.Error("Enqueue(depth 100) = false with unlimited depth, want true")
		}
	})
}

func TestFrontier_SaveLoad(t *testing.T) {
	t.Parallel()

	t.Run("resume restores visited and pending exactly", func(t *testing.T) {
		t.Parallel()

		statePath := filepath.Join(t.TempDir(), "crawler_state.json")

		// Simulate a crash mid-crawl: 10 visited, 3 pending.
		f := NewFrontier(statePath, 0)
		for i := range 13 {
			f.Enqueue(pageN(i), 1)
		}
		taken := f.TakeBatch(10)
		if len(taken) != 10 {
			t.Fatalf("TakeBatch(10) returned %d, want 10", len(taken))
		}
		if err := f.Save(); err != nil {
			t.Fatalf("Save() error = %v, want nil", err)
		}

		// Fresh process resumes.
		resumed := NewFrontier(statePath, 0)
		if err := resumed.Load(); err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if got := resumed.VisitedLen(); got != 10 {
			t.Errorf("VisitedLen() = %d, want 10", got)
		}
		if got := resumed.PendingLen(); got != 3 {
			t.Errorf("PendingLen() = %d, want 3", got)
		}

		// Re-seeding the original seed must not duplicate it.
		if resumed.Enqueue(pageN(0), 1) {
			t.Error("Enqueue() re-added a visited URL after resume")
		}

		batch := resumed.TakeBatch(10)
		if len(batch) != 3 {
			t.Errorf("TakeBatch after resume returned %d, want 3", len(batch))
		}
		for _, entry := range batch {
			for _, prior := range taken {
				if entry.URL == prior.URL {
					t.Errorf("URL %q dispatched again after resume", entry.URL)
				}
			}
		}
	})

	t.Run("load drops pending URLs already visited", func(t *testing.T) {
		t.Parallel()

		statePath := filepath.Join(t.TempDir(), "crawler_state.json")
		state := map[string]any{
			"visited_urls": []string{"https://docs.example.com/a"},
			"pending": map[string]int{
				"https://docs.example.com/a": 1,
				"https://docs.example.com/b": 2,
			},
		}
		data, err := json.Marshal(state)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(statePath, data, 0o600); err != nil {
			t.Fatal(err)
		}

		f := NewFrontier(statePath, 0)
		if err := f.Load(); err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if got := f.PendingLen(); got != 1 {
			t.Errorf("PendingLen() = %d, want 1 (visited entry dropped)", got)
		}

		batch := f.TakeBatch(10)
		if len(batch) != 1 || batch[0].URL != "https://docs.example.com/b" {
			t.Errorf("TakeBatch() = %v, want just /b", batch)
		}
	})

	t.Run("load of a missing snapshot reports not-exist", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(filepath.Join(t.TempDir(), "missing.json"), 0)
		err := f.Load()
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Load() error = %v, want wrapped fs.ErrNotExist", err)
		}
	})

	t.Run("save leaves no temp file behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		statePath := filepath.Join(dir, "crawler_state.json")

		f := NewFrontier(statePath, 0)
		f.Enqueue("https://docs.example.com/a", 1)
		if err := f.Save(); err != nil {
			t.Fatalf("Save() error = %v, want nil", err)
		}

		if _, err := os.Stat(statePath); err != nil {
			t.Errorf("state file missing after Save: %v", err)
		}
		if _, err := os.Stat(statePath + ".tmp"); !os.IsNotExist(err) {
			t.Error("temp file left behind after Save")
		}
	})

	t.Run("persisted format uses the documented field names", func(t *testing.T) {
		t.Parallel()

		statePath := filepath.Join(t.TempDir(), "crawler_state.json")
		f := NewFrontier(statePath, 0)
		f.Enqueue("https://docs.example.com/a", 1)
		f.Enqueue("https://docs.example.com/b", 2)
		f.TakeBatch(1)
		if err := f.Save(); err != nil {
			t.Fatalf("Save() error = %v, want nil", err)
		}

		data, err := os.ReadFile(statePath)
		if err != nil {
			t.Fatal(err)
		}
		var state struct {
			VisitedURLs []string       `json:"visited_urls"`
			Pending     map[string]int `json:"pending"`
		}
		if err := json.Unmarshal(data, &state); err != nil {
			t.Fatalf("state file is not valid JSON: %v", err)
		}
		if len(state.VisitedURLs) != 1 || state.VisitedURLs[0] != "https://docs.example.com/a" {
			t.Errorf("visited_urls = %v, want [/a]", state.VisitedURLs)
		}
		if depth, ok := state.Pending["https://docs.example.com/b"]; !ok || depth != 2 {
			t.Errorf("pending = %v, want /b at depth 2", state.Pending)
		}
	})
}

func TestFrontier_ConcurrentSave(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "crawler_state.json")
	f := NewFrontier(statePath, 0)

	// A reader polls the published snapshot while writers race. Every read
	// must see one complete snapshot: saves rename over the target, so a
	// partially written or interleaved file is a correctness failure.
	done := make(chan struct{})
	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			data, err := os.ReadFile(statePath)
			if err != nil {
				continue // nothing published yet
			}
			var state frontierState
			if err := json.Unmarshal(data, &state); err != nil {
				t.Errorf("published snapshot corrupt (%d bytes): %v", len(data), err)
				return
			}
		}
	}()

	var writerWG sync.WaitGroup
	for w := 0; w < 8; w++ {
		writerWG.Add(1)
		go func(w int) {
			defer writerWG.Done()
			for i := 0; i < 25; i++ {
				f.Enqueue(fmt.Sprintf("https://docs.example.com/w%d/p%d", w, i), 1)
				f.TakeBatch(1)
				if err := f.Save(); err != nil {
					t.Errorf("Save() error = %v, want nil", err)
					return
				}
			}
		}(w)
	}
	writerWG.Wait()
	close(done)
	readerWG.Wait()

	// The final snapshot must reflect every writer's URLs.
	resumed := NewFrontier(statePath, 0)
	if err := resumed.Load(); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if got := resumed.VisitedLen() + resumed.PendingLen(); got != 8*25 {
		t.Errorf("snapshot holds %d URLs, want %d", got, 8*25)
	}
}

// pageN builds a distinct test URL.
func pageN(i int) string {
	return "https://docs.example.com/page-" + string(rune('a'+i))
}
