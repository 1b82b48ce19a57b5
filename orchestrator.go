package orbix

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subrequest is one concrete outbound call belonging to a logical
// operation. Optional sub-requests degrade to a nil result on failure
// instead of failing the whole operation; the aggregation function
// substitutes the documented default for them.
type Subrequest struct {
	Name     string
	Method   string
	Group    string
	Optional bool
	Call     AttemptFunc
}

// AggregateFunc combines sub-request results, indexed in declaration
// order, into the operation's final value. It must not depend on the
// completion order of the sub-requests. Results of failed optional
// sub-requests are nil.
type AggregateFunc func(results []any) (any, error)

// Operation describes one logical operation: its sub-requests, its
// rate-limit exposure and its cache eligibility. An empty CacheKey marks
// the operation as not cache-eligible.
type Operation struct {
	Name        string
	CacheKey    string
	Subrequests []Subrequest
	Aggregate   AggregateFunc
}

// invoke orchestrates one operation: cache lookup, rate-limit admission
// for every sub-request group, concurrent execution of the admitted
// sub-requests each wrapped by the retry policy, a join with
// first-failure-wins, aggregation, cache store and telemetry.
func (c *Client) invoke(ctx context.Context, op Operation) (any, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.inFlight.Done()

	start := time.Now()
	requestID := uuid.NewString()
	logger := c.logger.With().Str("request_id", requestID).Str("operation", op.Name).Logger()

	cacheable := c.cache != nil && op.CacheKey != ""
	if cacheable {
		if value, ok := c.cache.Get(op.CacheKey); ok {
			logger.Debug().Str("cache_key", op.CacheKey).Msg("cache hit")
			if c.metrics != nil {
				c.metrics.RecordCacheHit(op.Name)
			}
			c.recordAttempt(ctx, requestID, Attempt{
				Endpoint:   op.Name,
				Method:     op.method(),
				StartedAt:  start,
				Duration:   time.Since(start),
				Success:    true,
				Cached:     true,
				StatusCode: 200,
			})
			return value, nil
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(op.Name)
		}
	}

	// Admission for every sub-request group up front: a single rejection
	// fails the whole operation before any network call is issued.
	for _, sub := range op.Subrequests {
		admitted, retryAfter := c.limiter.Check(sub.Group)
		if !admitted {
			err := &RateLimitError{RetryAfter: retryAfter, Local: true, Group: sub.Group}
			logger.Warn().Str("group", sub.Group).Dur("retry_after", retryAfter).Msg("rate limit exceeded")
			if c.metrics != nil {
				c.metrics.RecordRateLimited(sub.Group)
				c.metrics.RecordError(errorKind(err), op.Name)
			}
			c.recordAttempt(ctx, requestID, Attempt{
				Endpoint:   op.Name,
				Method:     op.method(),
				StartedAt:  start,
				Duration:   time.Since(start),
				StatusCode: 429,
				ErrorKind:  errorKind(err),
			})
			return nil, err
		}
	}

	opCtx, cancel := c.operationContext(ctx)
	defer cancel()

	results := make([]any, len(op.Subrequests))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i := range op.Subrequests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := op.Subrequests[i]
			subStart := time.Now()

			if c.metrics != nil {
				c.metrics.RecordRequestStart(sub.Method, sub.Name)
			}
			value, err := c.retry.execute(opCtx, sub.Call, func(attempt int) {
				logger.Debug().Str("subrequest", sub.Name).Int("attempt", attempt).Msg("retrying")
				if c.metrics != nil {
					c.metrics.RecordRetry(sub.Method, sub.Name)
				}
			})
			duration := time.Since(subStart)
			if c.metrics != nil {
				c.metrics.RecordRequestEnd(sub.Method, sub.Name)
				c.metrics.RecordRequest(sub.Method, sub.Name, statusCode(err), duration)
			}

			c.recordAttempt(opCtx, requestID, Attempt{
				Endpoint:   sub.Name,
				Method:     sub.Method,
				StartedAt:  subStart,
				Duration:   duration,
				Success:    err == nil,
				StatusCode: statusCode(err),
				ErrorKind:  errorKind(err),
			})

			if err != nil {
				if sub.Optional {
					logger.Warn().Str("subrequest", sub.Name).Err(err).Msg("optional subrequest degraded")
					return
				}
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel() // abort the remaining sub-requests
				}
				mu.Unlock()
				return
			}
			results[i] = value
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		if c.metrics != nil {
			c.metrics.RecordError(errorKind(firstErr), op.Name)
		}
		c.recordAttempt(ctx, requestID, Attempt{
			Endpoint:   op.Name,
			Method:     op.method(),
			StartedAt:  start,
			Duration:   time.Since(start),
			StatusCode: statusCode(firstErr),
			ErrorKind:  errorKind(firstErr),
		})
		return nil, firstErr
	}

	value := results[0]
	if op.Aggregate != nil {
		aggregated, err := op.Aggregate(results)
		if err != nil {
			c.recordAttempt(ctx, requestID, Attempt{
				Endpoint:  op.Name,
				Method:    op.method(),
				StartedAt: start,
				Duration:  time.Since(start),
				ErrorKind: errorKind(err),
			})
			return nil, err
		}
		value = aggregated
	}

	if cacheable {
		c.cache.Set(op.CacheKey, value)
		if c.metrics != nil {
			c.metrics.RecordCacheSize(c.cache.Len())
		}
	}

	c.recordAttempt(ctx, requestID, Attempt{
		Endpoint:   op.Name,
		Method:     op.method(),
		StartedAt:  start,
		Duration:   time.Since(start),
		Success:    true,
		StatusCode: 200,
	})
	logger.Debug().Dur("duration", time.Since(start)).Int("subrequests", len(op.Subrequests)).Msg("operation complete")
	return value, nil
}

func (op Operation) method() string {
	if len(op.Subrequests) > 0 {
		return op.Subrequests[0].Method
	}
	return "GET"
}

// operationContext derives the hard per-operation deadline and ties it
// to the client lifecycle so Close cancels in-flight operations.
func (c *Client) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	stop := context.AfterFunc(c.rootCtx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// recordAttempt feeds the monitor and, when configured, the audit log.
// Both are best-effort: telemetry failures never abort an operation.
func (c *Client) recordAttempt(ctx context.Context, requestID string, a Attempt) {
	c.monitor.Record(a)
	if c.audit != nil {
		if err := c.audit.Record(context.WithoutCancel(ctx), requestID, a); err != nil {
			c.logger.Warn().Err(err).Str("request_id", requestID).Msg("audit write failed")
		}
	}
}

func statusCode(err error) int {
	if err == nil {
		return 200
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if errors.Is(err, ErrNotFound) {
		return 404
	}
	if errors.Is(err, ErrRateLimited) {
		return 429
	}
	return 0
}
