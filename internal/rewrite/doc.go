// Package rewrite derives output file paths from page URLs and rewrites
// markdown links so a mirrored documentation tree is browsable offline.
//
// Path derivation and link rewriting share one function, OutputPath, so
// rewritten links always point at files the storage writer actually creates.
package rewrite
