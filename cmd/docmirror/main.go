// Package main provides the entry point for the docmirror CLI.
//
// docmirror mirrors a documentation website as a tree of markdown files
// with working relative links. Interrupted crawls resume from a saved
// state file instead of starting over.
//
// Usage:
//
//	docmirror crawl https://docs.example.com/guide
//	docmirror status
//
// See --help for all available options.
package main

// main is the entry point for docmirror.
func main() {
	Execute()
}
