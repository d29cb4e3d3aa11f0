// Package crawler implements the documentation crawl engine: URL
// normalization, the persistent frontier (visited set plus pending queue),
// link extraction, and the batch scheduler that drives fetches with bounded
// concurrency, retry, and durable state saves.
//
// Traversal is breadth-first by discovery order. The frontier state survives
// restarts: a crawl interrupted at any point resumes from its last saved
// snapshot without re-fetching visited pages.
package crawler
