package orbix

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type config struct {
	timeout time.Duration

	cacheTTL      time.Duration
	cacheCapacity int
	cacheDisabled bool
	customCache   Cache

	rateWindow time.Duration
	rateLimits map[string]int

	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	jitter            float64
	backoffStrategy   BackoffStrategy

	monitorCapacity int

	logger     zerolog.Logger
	metrics    *MetricsCollector
	auditPath  string
	httpClient *http.Client
	baseURLs   map[string]string
}

func defaultConfig() config {
	limits := make(map[string]int, len(DefaultRateLimits))
	for group, limit := range DefaultRateLimits {
		limits[group] = limit
	}
	return config{
		timeout:           30 * time.Second,
		cacheTTL:          5 * time.Minute,
		cacheCapacity:     1000,
		rateWindow:        time.Minute,
		rateLimits:        limits,
		maxRetries:        3,
		initialBackoff:    500 * time.Millisecond,
		maxBackoff:        10 * time.Second,
		backoffMultiplier: 2.0,
		jitter:            0.1,
		backoffStrategy:   ExponentialJitter,
		monitorCapacity:   1000,
		logger:            zerolog.Nop(),
		baseURLs:          map[string]string{},
	}
}

// Option configures a Client at construction.
type Option func(*config)

// WithTimeout sets the hard per-operation deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithCacheTTL sets how long cached entries stay valid.
func WithCacheTTL(d time.Duration) Option {
	return func(c *config) {
		c.cacheTTL = d
	}
}

// WithCacheCapacity sets the maximum number of cached entries.
func WithCacheCapacity(n int) Option {
	return func(c *config) {
		c.cacheCapacity = n
	}
}

// WithCache replaces the default LRU cache with a custom implementation.
func WithCache(cache Cache) Option {
	return func(c *config) {
		c.customCache = cache
	}
}

// WithoutCache disables response caching entirely.
func WithoutCache() Option {
	return func(c *config) {
		c.cacheDisabled = true
	}
}

// WithRateLimit overrides the per-window budget for a method group.
func WithRateLimit(group string, limit int) Option {
	return func(c *config) {
		c.rateLimits[group] = limit
	}
}

// WithRateLimitWindow changes the trailing window span from the default
// one minute. The configured group limits apply per window span.
func WithRateLimitWindow(d time.Duration) Option {
	return func(c *config) {
		c.rateWindow = d
	}
}

// WithMaxRetries sets the retry budget per sub-request.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// WithInitialBackoff sets the base retry delay.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *config) {
		c.initialBackoff = d
	}
}

// WithMaxBackoff caps the retry delay.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *config) {
		c.maxBackoff = d
	}
}

// WithBackoffMultiplier sets the delay growth factor between retries.
func WithBackoffMultiplier(f float64) Option {
	return func(c *config) {
		c.backoffMultiplier = f
	}
}

// WithJitter sets the jitter factor for retry delays, clamped to [0, 1].
func WithJitter(f float64) Option {
	return func(c *config) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.jitter = f
	}
}

// WithBackoffStrategy selects the retry delay schedule.
func WithBackoffStrategy(s BackoffStrategy) Option {
	return func(c *config) {
		c.backoffStrategy = s
	}
}

// WithMonitorCapacity sets how many attempt records the performance
// monitor retains.
func WithMonitorCapacity(n int) Option {
	return func(c *config) {
		c.monitorCapacity = n
	}
}

// WithLogger attaches a zerolog logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *config) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsRegistry enables Prometheus metrics on the supplied
// registerer.
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(c *config) {
		c.metrics = NewMetricsCollectorWithRegistry(registry)
	}
}

// WithAuditLog persists attempt records to a SQLite database at path.
func WithAuditLog(path string) Option {
	return func(c *config) {
		c.auditPath = path
	}
}

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the base URL for one service, mainly for tests
// and proxies.
func WithBaseURL(service, base string) Option {
	return func(c *config) {
		c.baseURLs[service] = base
	}
}
