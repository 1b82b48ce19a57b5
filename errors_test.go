package orbix

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestErrorSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", &NotFoundError{Identifier: "user 7"}, ErrNotFound},
		{"rate limited", &RateLimitError{RetryAfter: time.Second}, ErrRateLimited},
		{"timeout", &TimeoutError{}, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
		})
	}
}

func TestErrorSentinelsAreDistinct(t *testing.T) {
	if errors.Is(&NotFoundError{}, ErrRateLimited) {
		t.Error("not-found must not match rate-limited")
	}
	if errors.Is(&RateLimitError{}, ErrTimeout) {
		t.Error("rate-limited must not match timeout")
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected NetworkError to unwrap its cause")
	}
}

func TestNetworkErrorWrappingTimeout(t *testing.T) {
	// Retry exhaustion wraps the last cause; a wrapped timeout should
	// still match ErrTimeout through the chain.
	err := &NetworkError{Cause: &TimeoutError{}}
	if !errors.Is(err, ErrTimeout) {
		t.Error("expected wrapped timeout to match ErrTimeout")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &NetworkError{Cause: errors.New("reset")}, true},
		{"server 500", &APIError{StatusCode: 500}, true},
		{"server 503", &APIError{StatusCode: 503}, true},
		{"client 400", &APIError{StatusCode: 400}, false},
		{"not found", &NotFoundError{Identifier: "user 7"}, false},
		{"rate limited", &RateLimitError{}, false},
		{"timeout", &TimeoutError{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorKindLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&NotFoundError{Identifier: "x"}, "not_found"},
		{&RateLimitError{}, "rate_limited"},
		{&TimeoutError{}, "timeout"},
		{&NetworkError{Cause: errors.New("reset")}, "network"},
		{&APIError{StatusCode: 502}, "server"},
		{&APIError{StatusCode: 403}, "client"},
		{errors.New("anything else"), "other"},
	}

	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRateLimitErrorMessage(t *testing.T) {
	local := &RateLimitError{RetryAfter: 30 * time.Second, Local: true}
	if msg := local.Error(); !strings.Contains(msg, "local") || !strings.Contains(msg, "30s") {
		t.Errorf("unexpected local message: %q", msg)
	}

	upstream := &RateLimitError{}
	if msg := upstream.Error(); !strings.Contains(msg, "upstream") {
		t.Errorf("unexpected upstream message: %q", msg)
	}
}
