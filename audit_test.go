package orbix

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestAuditLog(t *testing.T) *AuditLog {
	t.Helper()
	log, err := OpenAuditLog(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditLog() error: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func TestAuditLogRecordAndSummarize(t *testing.T) {
	log := openTestAuditLog(t)
	ctx := context.Background()

	records := []Attempt{
		{Endpoint: "users.get", Method: "GET", StartedAt: time.Now(), Duration: 100 * time.Millisecond, Success: true, StatusCode: 200},
		{Endpoint: "users.get", Method: "GET", StartedAt: time.Now(), Duration: 300 * time.Millisecond, Success: true, Cached: true, StatusCode: 200},
		{Endpoint: "users.get", Method: "GET", StartedAt: time.Now(), Duration: 200 * time.Millisecond, StatusCode: 500, ErrorKind: "server"},
		{Endpoint: "games.details", Method: "GET", StartedAt: time.Now(), Duration: 50 * time.Millisecond, Success: true, StatusCode: 200},
	}
	for i, a := range records {
		if err := log.Record(ctx, "req-1", a); err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
	}

	summary, err := log.EndpointSummary(ctx)
	if err != nil {
		t.Fatalf("EndpointSummary() error: %v", err)
	}

	users, ok := summary["users.get"]
	if !ok {
		t.Fatal("expected users.get summary")
	}
	if users.Count != 3 || users.Successes != 2 || users.CacheHits != 1 {
		t.Errorf("unexpected users.get summary: %+v", users)
	}
	if users.AvgDurationMS != 200 {
		t.Errorf("expected avg 200ms, got %v", users.AvgDurationMS)
	}
	if games := summary["games.details"]; games.Count != 1 {
		t.Errorf("unexpected games.details summary: %+v", games)
	}
}

func TestAuditLogPrune(t *testing.T) {
	log := openTestAuditLog(t)
	ctx := context.Background()

	old := Attempt{Endpoint: "users.get", Method: "GET", StartedAt: time.Now().Add(-48 * time.Hour), Success: true, StatusCode: 200}
	recent := Attempt{Endpoint: "users.get", Method: "GET", StartedAt: time.Now(), Success: true, StatusCode: 200}
	if err := log.Record(ctx, "req-old", old); err != nil {
		t.Fatalf("Record(old) error: %v", err)
	}
	if err := log.Record(ctx, "req-new", recent); err != nil {
		t.Fatalf("Record(new) error: %v", err)
	}

	pruned, err := log.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned row, got %d", pruned)
	}

	summary, err := log.EndpointSummary(ctx)
	if err != nil {
		t.Fatalf("EndpointSummary() error: %v", err)
	}
	if summary["users.get"].Count != 1 {
		t.Errorf("expected 1 surviving row, got %d", summary["users.get"].Count)
	}
}

func TestAuditLogNilSafe(t *testing.T) {
	var log *AuditLog
	if err := log.Record(context.Background(), "req", Attempt{}); err != nil {
		t.Errorf("nil Record() error: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("nil Close() error: %v", err)
	}
}

func TestClientAuditIntegration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	client := newTestClient(t, WithAuditLog(path), WithMaxRetries(0))

	op := Operation{
		Name: "test.audited",
		Subrequests: []Subrequest{{
			Name:   "test.audited",
			Method: "GET",
			Group:  GroupUsers,
			Call: func(ctx context.Context) (any, error) {
				return "ok", nil
			},
		}},
	}
	if _, err := client.invoke(context.Background(), op); err != nil {
		t.Fatalf("invoke() error: %v", err)
	}

	summary, err := client.AuditSummary(context.Background())
	if err != nil {
		t.Fatalf("AuditSummary() error: %v", err)
	}
	// One row per sub-request plus one aggregate row, same endpoint name.
	if got := summary["test.audited"].Count; got != 2 {
		t.Errorf("expected 2 persisted rows, got %d", got)
	}
}

func TestAuditSummaryWithoutAuditLog(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.AuditSummary(context.Background()); err == nil {
		t.Error("expected an error when no audit log is configured")
	}
}
