package orbix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const userAgent = "orbix-go/1.0 (+https://github.com/bramazine/orbix)"

// transport issues JSON requests against the API subdomains and maps
// responses to typed errors. The underlying *http.Client with its pooled
// connections is the shared resource the Client owns for its lifetime.
type transport struct {
	http     *http.Client
	baseURLs map[string]string
	logger   zerolog.Logger
}

func newTransport(timeout time.Duration, httpClient *http.Client, overrides map[string]string, logger zerolog.Logger) *transport {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 30,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}

	baseURLs := make(map[string]string, len(defaultBaseURLs))
	for service, base := range defaultBaseURLs {
		baseURLs[service] = base
	}
	for service, base := range overrides {
		baseURLs[service] = strings.TrimSuffix(base, "/")
	}

	return &transport{http: httpClient, baseURLs: baseURLs, logger: logger}
}

func (t *transport) baseURL(service string) string {
	if base, ok := t.baseURLs[service]; ok {
		return base
	}
	return fallbackBaseURL
}

// resolveURL returns the full URL for a service path without query
// parameters; it is also the URL component of cache keys.
func (t *transport) resolveURL(service, path string) string {
	return t.baseURL(service) + path
}

func (t *transport) get(ctx context.Context, service, path string, params map[string]string) (map[string]any, error) {
	return t.do(ctx, http.MethodGet, service, path, params, nil)
}

func (t *transport) post(ctx context.Context, service, path string, payload any) (map[string]any, error) {
	return t.do(ctx, http.MethodPost, service, path, nil, payload)
}

func (t *transport) do(ctx context.Context, method, service, path string, params map[string]string, payload any) (map[string]any, error) {
	target := t.resolveURL(service, path)
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Cause: err}
		}
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if err := responseError(resp, path); err != nil {
		t.logger.Debug().Str("method", method).Str("url", target).
			Int("status", resp.StatusCode).Err(err).Msg("request failed")
		return nil, err
	}

	decoded := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	return decoded, nil
}

// responseError maps a non-2xx response to a typed error.
func responseError(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &NotFoundError{Identifier: path}
	case http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	message := ""
	var payload struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		message = payload.Message
		if message == "" && len(payload.Errors) > 0 {
			message = payload.Errors[0].Message
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// parseRetryAfter accepts both delay-seconds and HTTP-date formats,
// capped at one hour.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > time.Hour {
			delay = time.Hour
		}
		return delay
	}

	if at, err := http.ParseTime(value); err == nil {
		if delay := time.Until(at); delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}

func (t *transport) closeIdle() {
	t.http.CloseIdleConnections()
}
