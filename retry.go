package orbix

import (
	"context"
	"errors"
	"time"

	"github.com/bramazine/orbix/internal/backoff"
)

// BackoffStrategy selects the delay schedule between retries.
type BackoffStrategy int

const (
	// ExponentialJitter doubles the delay each retry with uniform jitter.
	ExponentialJitter BackoffStrategy = iota
	// DecorrelatedJitter draws each delay from a widening uniform range.
	DecorrelatedJitter
)

// AttemptFunc performs one attempt of a sub-request.
type AttemptFunc func(ctx context.Context) (any, error)

// RetryPolicy wraps a single logical request with bounded retries and
// backoff. Only transient failures (see IsTransient) are retried;
// everything else propagates immediately. Safe for concurrent use.
type RetryPolicy struct {
	maxRetries int
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
	strategy   backoff.Strategy

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a policy retrying up to maxRetries times with
// exponential-jitter delays starting at initial and capped at max.
func NewRetryPolicy(maxRetries int, initial, max time.Duration, multiplier, jitter float64) *RetryPolicy {
	return &RetryPolicy{
		maxRetries: maxRetries,
		initial:    initial,
		max:        max,
		multiplier: multiplier,
		jitter:     jitter,
		strategy:   backoff.Exponential{},
		sleep:      sleepContext,
	}
}

// SetStrategy switches the backoff schedule.
func (p *RetryPolicy) SetStrategy(s BackoffStrategy) {
	switch s {
	case DecorrelatedJitter:
		p.strategy = backoff.Decorrelated{}
	default:
		p.strategy = backoff.Exponential{}
	}
}

// Execute runs fn until it succeeds, fails terminally, or the retry
// budget is spent. A backoff sleep that would outlive the context
// deadline fails the attempt loop with a timeout classification instead
// of finishing the schedule. Retry exhaustion surfaces a NetworkError
// wrapping the last transient cause.
func (p *RetryPolicy) Execute(ctx context.Context, fn AttemptFunc) (any, error) {
	return p.execute(ctx, fn, nil)
}

// execute is Execute with a retry notification hook for telemetry.
// notify runs before the backoff sleep of each retry.
func (p *RetryPolicy) execute(ctx context.Context, fn AttemptFunc, notify func(attempt int)) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			if notify != nil {
				notify(attempt)
			}
			delay := p.strategy.Delay(attempt-1, p.initial, p.max, p.multiplier, p.jitter)
			if deadline, ok := ctx.Deadline(); ok && time.Now().Add(delay).After(deadline) {
				return nil, &TimeoutError{Cause: lastErr}
			}
			if err := p.sleep(ctx, delay); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, &TimeoutError{Cause: lastErr}
				}
				return nil, err
			}
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	var netErr *NetworkError
	if errors.As(lastErr, &netErr) {
		return nil, lastErr
	}
	return nil, &NetworkError{Cause: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
