package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/plotwise/plotwise/pkg/models"
)

// Tracker records and queries the operation ledger.
type Tracker interface {
	// Record stores one operation call.
	Record(ctx context.Context, rec models.UsageRecord) error
	// Summary aggregates calls per operation and outcome, optionally filtered by operation.
	Summary(ctx context.Context, op models.Operation) ([]models.UsageSummary, error)
	// Recent returns the latest records, newest first.
	Recent(ctx context.Context, limit int) ([]models.UsageRecord, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS operation_records (
	id TEXT PRIMARY KEY,
	operation TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	cache_hit INTEGER NOT NULL DEFAULT 0,
	listing_id TEXT NOT NULL DEFAULT '',
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_operation_time ON operation_records(operation, created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record stores an operation record. Missing ids and timestamps are filled in.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO operation_records (id, operation, model, outcome, cache_hit, listing_id,
		 prompt_tokens, completion_tokens, total_tokens, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Operation), rec.Model, rec.Outcome, rec.CacheHit, rec.ListingID,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// Summary returns aggregated counts grouped by operation and outcome.
func (t *SQLiteTracker) Summary(ctx context.Context, op models.Operation) ([]models.UsageSummary, error) {
	query := `SELECT operation, outcome, COUNT(*), COALESCE(SUM(cache_hit), 0),
		 COALESCE(SUM(total_tokens), 0), COALESCE(AVG(latency_ms), 0)
		 FROM operation_records`
	var args []any
	if op != "" {
		query += ` WHERE operation = ?`
		args = append(args, string(op))
	}
	query += ` GROUP BY operation, outcome ORDER BY operation, outcome`

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		var operation string
		if err := rows.Scan(&operation, &s.Outcome, &s.RequestCount, &s.CacheHits, &s.TotalTokens, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Operation = models.Operation(operation)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Recent returns up to limit records, newest first.
func (t *SQLiteTracker) Recent(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, operation, model, outcome, cache_hit, listing_id,
		 prompt_tokens, completion_tokens, total_tokens, latency_ms, created_at
		 FROM operation_records ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent records: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		var operation string
		if err := rows.Scan(&r.ID, &operation, &r.Model, &r.Outcome, &r.CacheHit, &r.ListingID,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Operation = models.Operation(operation)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
