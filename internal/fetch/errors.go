package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Fetch error taxonomy. The scheduler keys its retry and logging decisions
// off these classifications:
//
//   - transient errors (session/context invalidated) are retried with backoff
//   - fatal errors (the fetch capability itself died) abort the run after a
//     final state save
//   - everything else is permanent for that URL: logged once, no retry
var (
	// ErrSessionInvalidated indicates the shared fetch session (browser
	// context, connection pool) was torn down mid-fetch. Retrying after a
	// delay usually succeeds because the session re-establishes itself.
	ErrSessionInvalidated = errors.New("fetch session invalidated")

	// ErrFetcherClosed indicates the fetch capability is gone for good and
	// cannot serve any further URL. The run aborts after a final state save.
	ErrFetcherClosed = errors.New("fetch capability closed")

	// ErrContentTooShort indicates the page rendered below the configured
	// word-count floor. Not a failure: the page is skipped without output.
	ErrContentTooShort = errors.New("page content below word-count floor")

	// ErrNotHTML indicates the URL served a non-HTML content type.
	// Skipped without output.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrRobotsDisallowed indicates robots.txt forbids fetching the URL.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
)

// StatusError reports a non-success HTTP response. Permanent: a 404 or 500
// is not going to improve on immediate retry.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// IsTransient reports whether the error is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSessionInvalidated)
}

// IsFatal reports whether the error means the fetch capability can serve no
// further URLs and the run must abort.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFetcherClosed)
}

// IsSkip reports whether the error is an expected content classification
// (too short, not HTML, robots-disallowed) rather than a fetch failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrContentTooShort) ||
		errors.Is(err, ErrNotHTML) ||
		errors.Is(err, ErrRobotsDisallowed)
}

// FailureHint returns a short categorized hint for a permanent fetch
// failure, so the log line tells the user what to look at without them
// reading stack traces.
func FailureHint(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return "server returned a non-success status"
	case errors.Is(err, context.DeadlineExceeded):
		return "page load timed out; consider raising --timeout"
	case strings.Contains(err.Error(), "timeout"):
		return "page load timed out; consider raising --timeout"
	case strings.Contains(err.Error(), "navigation"):
		return "navigation failed; the page may redirect or fail to load"
	case strings.Contains(err.Error(), "context"), strings.Contains(err.Error(), "browser"):
		return "browser context error; the session may have been interrupted"
	default:
		return "fetch failed"
	}
}
