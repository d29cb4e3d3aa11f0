// Package log provides structured logging helpers for docmirror.
//
// The package wraps log/slog with a redacting handler that masks
// authentication material before it reaches log output. docmirror can crawl
// private documentation sites using a pre-established browser session, so
// cookies, session identifiers, and tokens routinely pass through the fetch
// layer. None of that material may leak into logs that users share when
// reporting crawl problems.
package log
