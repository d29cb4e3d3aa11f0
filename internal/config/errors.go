package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic handling while still providing human-readable messages.
var (
	// ErrNoBaseURL is returned when no base URL is provided.
	ErrNoBaseURL = errors.New("no base URL specified: provide the documentation site's entry URL")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http or https URL. Other schemes cannot be crawled.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidMaxWorkers is returned when the worker count is not positive.
	// Zero workers would mean no crawling at all.
	ErrInvalidMaxWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// Use 0 for unlimited depth.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative (0 = unlimited)")

	// ErrInvalidTimeout is returned when the page timeout is not positive.
	// A zero timeout would cause every fetch to fail immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRequestDelay is returned when the request delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidExcludePattern is returned when the exclusion pattern is not
	// a valid regular expression.
	ErrInvalidExcludePattern = errors.New("invalid exclude pattern: not a valid regular expression")

	// ErrInvalidProfileDir is returned when the browser profile directory
	// does not exist or is not a directory. Private-site crawling requires a
	// pre-established profile holding the login state.
	ErrInvalidProfileDir = errors.New("invalid profile directory: does not exist or is not a directory")
)
