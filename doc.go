// Package orbix is a Roblox web API client built around a resilient
// request orchestration layer:
//
//   - Per-method-group rate limiting over a trailing window
//   - LRU response caching with TTL expiry and eager cache warming
//   - Retries with exponential backoff + jitter for transient failures
//   - Concurrent fan-out of independent sub-requests with
//     first-failure-wins aggregation
//   - Performance monitoring with per-endpoint statistics, optional
//     Prometheus metrics and an optional persistent SQLite attempt log
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Client instance
//   - Typed models and classified errors; no raw HTTP exposed
//
// Typical usage:
//
//	client, err := orbix.New(
//	    orbix.WithTimeout(30*time.Second),
//	    orbix.WithCacheTTL(5*time.Minute),
//	    orbix.WithMaxRetries(3),
//	)
//	if err != nil {
//	    // handle
//	}
//	defer client.Close()
//
//	profile, err := client.GetUser(ctx, 1)
//
// Errors are classified: match with errors.Is against ErrNotFound,
// ErrRateLimited and ErrTimeout, or errors.As against the typed kinds
// (*APIError, *NetworkError, *RateLimitError) for details.
package orbix
