package orbix

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// AuditLog persists attempt records to a dedicated SQLite database so
// request telemetry survives restarts. Writes are best-effort: a failed
// insert is logged by the client and never fails the operation that
// produced it.
type AuditLog struct {
	db *sql.DB
}

const createAttemptTable = `
CREATE TABLE IF NOT EXISTS attempt_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT NOT NULL,
	endpoint    TEXT NOT NULL,
	method      TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	cached      INTEGER NOT NULL,
	error_kind  TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	started_at  DATETIME NOT NULL
);
`

// OpenAuditLog opens (creating if needed) the audit database at path.
func OpenAuditLog(path string) (*AuditLog, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrateAudit(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	return &AuditLog{db: db}, nil
}

func migrateAudit(db *sql.DB) error {
	if _, err := db.Exec(createAttemptTable); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_attempt_endpoint ON attempt_log(endpoint)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_attempt_started ON attempt_log(started_at)`)
	return err
}

// Record inserts one attempt row.
func (l *AuditLog) Record(ctx context.Context, requestID string, a Attempt) error {
	if l == nil || l.db == nil {
		return nil
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO attempt_log
			(request_id, endpoint, method, status_code, success, cached, error_kind, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID, a.Endpoint, a.Method, a.StatusCode,
		boolToInt(a.Success), boolToInt(a.Cached), a.ErrorKind,
		a.Duration.Milliseconds(), a.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// AuditSummary is an aggregate over persisted attempts for one endpoint.
type AuditSummary struct {
	Count         int64
	Successes     int64
	CacheHits     int64
	AvgDurationMS float64
}

// EndpointSummary aggregates all persisted attempts grouped by endpoint.
func (l *AuditLog) EndpointSummary(ctx context.Context) (map[string]AuditSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT endpoint, COUNT(*), SUM(success), SUM(cached), AVG(duration_ms)
		 FROM attempt_log GROUP BY endpoint`)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]AuditSummary)
	for rows.Next() {
		var endpoint string
		var s AuditSummary
		if err := rows.Scan(&endpoint, &s.Count, &s.Successes, &s.CacheHits, &s.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		out[endpoint] = s
	}
	return out, rows.Err()
}

// Prune deletes rows older than the retention period and returns how
// many were removed.
func (l *AuditLog) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM attempt_log WHERE started_at < ?`,
		time.Now().Add(-retention).UTC())
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (l *AuditLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
