package orbix

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for matching with errors.Is. The typed errors below all
// map onto one of these.
var (
	// ErrNotFound is returned when the requested entity does not exist upstream.
	ErrNotFound = errors.New("orbix: not found")

	// ErrRateLimited is returned when a call is denied by the local rate
	// limiter or throttled by the upstream API.
	ErrRateLimited = errors.New("orbix: rate limited")

	// ErrTimeout is returned when an operation's deadline elapses before
	// completion.
	ErrTimeout = errors.New("orbix: deadline exceeded")

	// ErrClosed is returned when an operation is attempted on a closed client.
	ErrClosed = errors.New("orbix: client is closed")
)

// APIError is a non-success response from the upstream API that is not
// otherwise classified. It carries the HTTP status code and the upstream
// message when one was parseable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("orbix: upstream error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("orbix: upstream error: HTTP %d", e.StatusCode)
}

// NotFoundError reports that the looked-up entity does not exist.
// Identifier is whatever the caller asked for: a user ID, a username or
// a request path.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("orbix: %s not found", e.Identifier)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RateLimitError reports a rejected call. Local distinguishes the
// client-side limiter from an upstream 429; RetryAfter is the suggested
// wait before trying again (zero when the upstream gave no hint).
type RateLimitError struct {
	RetryAfter time.Duration
	Local      bool
	Group      string
}

func (e *RateLimitError) Error() string {
	source := "upstream"
	if e.Local {
		source = "local"
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("orbix: %s rate limit exceeded, retry after %s", source, e.RetryAfter)
	}
	return fmt.Sprintf("orbix: %s rate limit exceeded", source)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// NetworkError is a transport-level failure: connection refused, DNS
// failure, reset, or retry exhaustion wrapping the last transient cause.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("orbix: network failure: %v", e.Cause)
	}
	return "orbix: network failure"
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// TimeoutError reports that the operation's overall deadline elapsed.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("orbix: deadline exceeded: %v", e.Cause)
	}
	return "orbix: deadline exceeded"
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsTransient reports whether an error represents a transient failure
// worth retrying: transport-level failures and 5xx server responses.
// Not-found, other 4xx, rate limiting and deadline expiry are terminal
// for a single attempt and propagate immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}

	return false
}

// errorKind returns a short label for telemetry.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return "network"
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode >= 500 {
				return "server"
			}
			return "client"
		}
		return "other"
	}
}
