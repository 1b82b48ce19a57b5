package orbix

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"padded seconds", " 5 ", 5 * time.Second},
		{"zero", "0", 0},
		{"negative", "-10", 0},
		{"capped at an hour", "86400", time.Hour},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	at := time.Now().Add(90 * time.Second).UTC()
	got := parseRetryAfter(at.Format(http.TimeFormat))
	if got < 80*time.Second || got > 90*time.Second {
		t.Errorf("parseRetryAfter(date) = %v, want roughly 90s", got)
	}

	past := time.Now().Add(-time.Minute).UTC()
	if got := parseRetryAfter(past.Format(http.TimeFormat)); got != 0 {
		t.Errorf("parseRetryAfter(past date) = %v, want 0", got)
	}
}

func response(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestResponseErrorClassification(t *testing.T) {
	if err := responseError(response(200, nil, `{}`), "/v1/users/1"); err != nil {
		t.Errorf("expected nil for 200, got %v", err)
	}
	if err := responseError(response(204, nil, ``), "/v1/users/1"); err != nil {
		t.Errorf("expected nil for 204, got %v", err)
	}

	err := responseError(response(404, nil, ``), "/v1/users/1")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) || nfErr.Identifier != "/v1/users/1" {
		t.Errorf("expected NotFoundError carrying the path, got %v", err)
	}

	header := http.Header{}
	header.Set("Retry-After", "12")
	err = responseError(response(429, header, ``), "/v1/users/1")
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rlErr.RetryAfter != 12*time.Second || rlErr.Local {
		t.Errorf("unexpected rate-limit details: %+v", rlErr)
	}
}

func TestResponseErrorParsesUpstreamMessage(t *testing.T) {
	err := responseError(response(400, nil, `{"errors":[{"message":"The user id is invalid."}]}`), "/v1/users/0")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Message != "The user id is invalid." {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}

	err = responseError(response(500, nil, `not json`), "/v1/users/1")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.Message != "" {
		t.Errorf("expected bare 500 APIError for an unparseable body, got %v", err)
	}
}

func TestResolveURLOverrides(t *testing.T) {
	tr := newTransport(time.Second, nil, map[string]string{
		ServiceUsers: "http://127.0.0.1:9999/",
	}, zerolog.Nop())

	if got := tr.resolveURL(ServiceUsers, "/v1/users/1"); got != "http://127.0.0.1:9999/v1/users/1" {
		t.Errorf("resolveURL() = %q, trailing slash should be trimmed", got)
	}
	if got := tr.resolveURL(ServiceGames, "/v1/games"); got != "https://games.roblox.com/v1/games" {
		t.Errorf("resolveURL() = %q, non-overridden service should keep its default", got)
	}
	if got := tr.resolveURL("unknown", "/x"); got != fallbackBaseURL+"/x" {
		t.Errorf("resolveURL() = %q, unknown service should use the fallback", got)
	}
}
