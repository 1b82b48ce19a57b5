package orbix

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingPolicy returns a policy with jitter disabled and sleeps
// replaced by a recorder, so delay math is deterministic and fast.
func recordingPolicy(maxRetries int) (*RetryPolicy, *[]time.Duration) {
	p := NewRetryPolicy(maxRetries, 100*time.Millisecond, 10*time.Second, 2.0, 0)
	delays := &[]time.Duration{}
	p.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p, delays
}

func TestRetryTransientTwiceThenSuccess(t *testing.T) {
	p, delays := recordingPolicy(3)

	calls := 0
	value, err := p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		if calls <= 2 {
			return nil, &NetworkError{Cause: errors.New("connection reset")}
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if value != "ok" {
		t.Errorf("expected %q, got %v", "ok", value)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(*delays) != 2 {
		t.Fatalf("expected 2 recorded delays, got %d", len(*delays))
	}
	if (*delays)[1] < 2*(*delays)[0] {
		t.Errorf("expected second delay >= double the first: %v then %v", (*delays)[0], (*delays)[1])
	}
}

func TestRetryNonRetryableZeroRetries(t *testing.T) {
	p, delays := recordingPolicy(3)

	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, &NotFoundError{Identifier: "user 7"}
	})

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	if len(*delays) != 0 {
		t.Errorf("expected no delays, got %d", len(*delays))
	}
}

func TestRetryUpstreamRateLimitNotRetried(t *testing.T) {
	p, _ := recordingPolicy(3)

	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, &RateLimitError{RetryAfter: 5 * time.Second}
	})

	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected rate-limit error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestRetryExhaustionWrapsLastCause(t *testing.T) {
	p, delays := recordingPolicy(2)

	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, &APIError{StatusCode: 503, Message: "unavailable"}
	})

	if calls != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", calls)
	}
	if len(*delays) != 2 {
		t.Errorf("expected 2 delays, got %d", len(*delays))
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError after exhaustion, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(netErr.Cause, &apiErr) || apiErr.StatusCode != 503 {
		t.Errorf("expected last cause to be the 503, got %v", netErr.Cause)
	}
}

func TestRetryServerErrorIsTransient(t *testing.T) {
	p, _ := recordingPolicy(1)

	calls := 0
	value, err := p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, &APIError{StatusCode: 500}
		}
		return "recovered", nil
	})

	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if value != "recovered" || calls != 2 {
		t.Errorf("expected recovery on 2nd attempt, got value=%v calls=%d", value, calls)
	}
}

func TestRetryClientErrorNotRetried(t *testing.T) {
	p, _ := recordingPolicy(3)

	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, &APIError{StatusCode: 400, Message: "malformed request"}
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Errorf("expected the 400 to propagate unchanged, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestRetryBackoffYieldsToDeadline(t *testing.T) {
	p := NewRetryPolicy(3, time.Hour, 2*time.Hour, 2.0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	_, err := p.Execute(ctx, func(ctx context.Context) (any, error) {
		calls++
		return nil, &NetworkError{Cause: errors.New("refused")}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before yielding to deadline, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Execute() waited %v instead of yielding to the deadline", elapsed)
	}
}

func TestRetryDecorrelatedStrategyBounds(t *testing.T) {
	p := NewRetryPolicy(3, 10*time.Millisecond, 100*time.Millisecond, 2.0, 0.5)
	p.SetStrategy(DecorrelatedJitter)

	var delays []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, _ = p.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, &NetworkError{Cause: errors.New("flaky")}
	})

	if len(delays) != 3 {
		t.Fatalf("expected 3 delays, got %d", len(delays))
	}
	for i, d := range delays {
		if d < 10*time.Millisecond || d > 100*time.Millisecond {
			t.Errorf("delay %d out of [initial, max] bounds: %v", i, d)
		}
	}
}
