// Package report renders crawl results as markdown: a run summary after
// each crawl, and a catalog listing for the status subcommand.
package report
