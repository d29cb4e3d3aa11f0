// Package fetch implements the page-fetch capability consumed by the crawl
// engine. Two implementations are provided: a plain HTTP client for public
// documentation sites and a headless-browser fetcher that reuses a
// pre-established browser profile for private sites.
//
// The crawl engine treats a Fetcher as a single shared resource. It never
// assumes a Fetcher is safe to invoke with more concurrency than the
// Fetcher's MaxConcurrency reports.
package fetch
