// Package storage persists crawled documents: markdown files under the
// output root, and a SQLite index of what was mirrored for the status
// subcommand and the crawl report.
package storage
