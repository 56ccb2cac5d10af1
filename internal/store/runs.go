package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run is a persisted pipeline run.
type Run struct {
	ID         string          `json:"id"`
	Document   string          `json:"document"`
	Strategies []string        `json:"strategies"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
	Rules      int             `json:"rules"`
	Ready      int             `json:"ready"`
	Verdict    string          `json:"verdict"`
	Stats      json.RawMessage `json:"stats,omitempty"`
}

// SaveRun stores or replaces a run.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	strategies, err := json.Marshal(run.Strategies)
	if err != nil {
		return fmt.Errorf("marshalling strategies: %w", err)
	}
	stats := string(run.Stats)
	if stats == "" {
		stats = "{}"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, document, strategies, started_at, duration_ms, rules, ready, verdict, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			strategies = excluded.strategies,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			rules = excluded.rules,
			ready = excluded.ready,
			verdict = excluded.verdict,
			stats = excluded.stats
	`, run.ID, run.Document, string(strategies), run.StartedAt.UTC(), run.Duration.Milliseconds(),
		run.Rules, run.Ready, run.Verdict, stats)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, document, strategies, started_at, duration_ms, rules, ready, verdict, stats
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			strategies string
			startedAt  sql.NullTime
			durationMs int64
			stats      string
		)
		if err := rows.Scan(&r.ID, &r.Document, &strategies, &startedAt, &durationMs,
			&r.Rules, &r.Ready, &r.Verdict, &stats); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if err := json.Unmarshal([]byte(strategies), &r.Strategies); err != nil {
			return nil, fmt.Errorf("unmarshalling strategies: %w", err)
		}
		if startedAt.Valid {
			r.StartedAt = startedAt.Time
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Stats = json.RawMessage(stats)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
