package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		transient bool
		fatal     bool
		skip      bool
	}{
		{
			name:      "session invalidated is transient",
			err:       fmt.Errorf("%w: target closed", ErrSessionInvalidated),
			transient: true,
		},
		{
			name:  "fetcher closed is fatal",
			err:   fmt.Errorf("%w: browser process exited", ErrFetcherClosed),
			fatal: true,
		},
		{
			name: "content too short is a skip",
			err:  fmt.Errorf("%w: 3 words", ErrContentTooShort),
			skip: true,
		},
		{
			name: "non-HTML response is a skip",
			err:  fmt.Errorf("%w: application/pdf", ErrNotHTML),
			skip: true,
		},
		{
			name: "robots disallowed is a skip",
			err:  fmt.Errorf("%w: https://example.com/private", ErrRobotsDisallowed),
			skip: true,
		},
		{
			name: "status error is permanent",
			err:  &StatusError{Code: 500},
		},
		{
			name: "timeout is permanent",
			err:  fmt.Errorf("page load timeout: %w", context.DeadlineExceeded),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
			if got := IsSkip(tt.err); got != tt.skip {
				t.Errorf("IsSkip() = %v, want %v", got, tt.skip)
			}
		})
	}
}

func TestFailureHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "status error",
			err:  &StatusError{Code: 404},
			want: "server returned a non-success status",
		},
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("page load timeout: %w", context.DeadlineExceeded),
			want: "page load timed out; consider raising --timeout",
		},
		{
			name: "navigation failure",
			err:  errors.New("navigation error: net::ERR_NAME_NOT_RESOLVED"),
			want: "navigation failed; the page may redirect or fail to load",
		},
		{
			name: "browser context error",
			err:  errors.New("browser context torn down"),
			want: "browser context error; the session may have been interrupted",
		},
		{
			name: "unknown failure",
			err:  errors.New("something odd"),
			want: "fetch failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FailureHint(tt.err); got != tt.want {
				t.Errorf("FailureHint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	t.Parallel()

	err := &StatusError{Code: 503}
	if got := err.Error(); got != "unexpected HTTP status 503" {
		t.Errorf("Error() = %q, want %q", got, "unexpected HTTP status 503")
	}
}
