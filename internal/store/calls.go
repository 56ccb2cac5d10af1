package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/dcpr/internal/llmcall"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// InsertCall implements llmcall.Sink.
func (s *Store) InsertCall(ctx context.Context, c *llmcall.Call) error {
	var temperature sql.NullFloat64
	if c.Temperature != nil {
		temperature = sql.NullFloat64{Float64: *c.Temperature, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_calls (id, run_id, timestamp, chunk_index, chunk_offset, prompt_key, prompt_hash,
			provider, model, temperature, input_tokens, output_tokens, reasoning_tokens, cost_usd,
			latency_ms, response, success, error_type, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, nullString(c.RunID), c.Timestamp.UTC(), c.ChunkIndex, c.ChunkOffset, c.PromptKey, c.PromptHash,
		c.Provider, c.Model, temperature, c.InputTokens, c.OutputTokens, c.ReasoningTokens, c.CostUSD,
		c.LatencyMs, c.Response, c.Success, c.ErrorType, c.Error)
	if err != nil {
		return fmt.Errorf("inserting llm call: %w", err)
	}
	return nil
}

// CallFilter specifies filters for listing LLM calls.
type CallFilter struct {
	RunID    string
	Provider string
	Success  *bool
	Limit    int
}

// ListCalls returns calls in chunk order within each run.
func (s *Store) ListCalls(ctx context.Context, f CallFilter) ([]*llmcall.Call, error) {
	var (
		conditions []string
		args       []any
	)
	if f.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Provider != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, f.Provider)
	}
	if f.Success != nil {
		conditions = append(conditions, "success = ?")
		args = append(args, *f.Success)
	}

	query := `SELECT id, run_id, timestamp, chunk_index, chunk_offset, prompt_key, prompt_hash,
		provider, model, temperature, input_tokens, output_tokens, reasoning_tokens, cost_usd,
		latency_ms, response, success, error_type, error FROM llm_calls`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp, chunk_index"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying llm calls: %w", err)
	}
	defer rows.Close()

	var calls []*llmcall.Call
	for rows.Next() {
		var (
			c           llmcall.Call
			runID       sql.NullString
			timestamp   sql.NullTime
			temperature sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &runID, &timestamp, &c.ChunkIndex, &c.ChunkOffset, &c.PromptKey, &c.PromptHash,
			&c.Provider, &c.Model, &temperature, &c.InputTokens, &c.OutputTokens, &c.ReasoningTokens, &c.CostUSD,
			&c.LatencyMs, &c.Response, &c.Success, &c.ErrorType, &c.Error); err != nil {
			return nil, fmt.Errorf("scanning llm call: %w", err)
		}
		c.RunID = runID.String
		if timestamp.Valid {
			c.Timestamp = timestamp.Time
		}
		if temperature.Valid {
			t := temperature.Float64
			c.Temperature = &t
		}
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}

var _ llmcall.Sink = (*Store)(nil)
