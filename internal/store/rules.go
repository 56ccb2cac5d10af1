package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackzampolin/dcpr/internal/types"
)

// SaveRules upserts rules by reference. An existing row keeps its verified
// flag unless the incoming rule is verified, and keeps its notes unless the
// incoming rule carries its own. Freshly extracted rules (verified=false)
// never clear curation; use SetVerified for that.
func (s *Store) SaveRules(ctx context.Context, runID string, rules []types.Rule) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rules (reference, chapter, clause, category, districts, strategy, evidence, pdf_page, verified, notes, data, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reference) DO UPDATE SET
			chapter = excluded.chapter,
			clause = excluded.clause,
			category = excluded.category,
			districts = excluded.districts,
			strategy = excluded.strategy,
			evidence = excluded.evidence,
			pdf_page = excluded.pdf_page,
			verified = CASE WHEN excluded.verified = 1 THEN 1 ELSE COALESCE(rules.verified, excluded.verified) END,
			notes = CASE WHEN excluded.notes = '' THEN rules.notes ELSE excluded.notes END,
			data = excluded.data,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range rules {
		r := &rules[i]
		data, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("marshalling rule %s: %w", r.Reference, err)
		}
		districts, err := json.Marshal(r.ApplicableDistricts)
		if err != nil {
			return 0, fmt.Errorf("marshalling districts: %w", err)
		}
		strategy, evidence := "", []string{}
		if r.Origin != nil {
			strategy = r.Origin.Strategy
			if len(r.Origin.Evidence) > 0 {
				evidence = r.Origin.Evidence
			}
		}
		evidenceJSON, err := json.Marshal(evidence)
		if err != nil {
			return 0, fmt.Errorf("marshalling evidence: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			r.Reference, r.Chapter, r.Clause, r.CategoryName(), string(districts), strategy, string(evidenceJSON),
			nullInt(r.PdfPage), nullBool(r.Verified), r.Notes, string(data), nullString(runID), now,
		); err != nil {
			return 0, fmt.Errorf("saving rule %s: %w", r.Reference, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rules: %w", err)
	}
	return len(rules), nil
}

// Filter selects rules from the corpus. Zero values match everything.
type Filter struct {
	Chapter  string
	Category string
	District string
	Strategy string
	Verified *bool
	Limit    int
}

// ListRules returns matching rules ordered by chapter, then insertion order.
func (s *Store) ListRules(ctx context.Context, f Filter) ([]types.Rule, error) {
	var (
		conditions []string
		args       []any
	)
	if f.Chapter != "" {
		conditions = append(conditions, "chapter = ?")
		args = append(args, f.Chapter)
	}
	if f.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, f.Category)
	}
	if f.District != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(rules.districts) WHERE value = ?)")
		args = append(args, f.District)
	}
	if f.Strategy != "" {
		conditions = append(conditions, "strategy = ?")
		args = append(args, f.Strategy)
	}
	if f.Verified != nil {
		if *f.Verified {
			conditions = append(conditions, "verified = 1")
		} else {
			conditions = append(conditions, "(verified IS NULL OR verified = 0)")
		}
	}

	query := "SELECT data, strategy, evidence, verified, notes FROM rules"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY CAST(chapter AS INTEGER), rowid"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	rules := []types.Rule{}
	for rows.Next() {
		var (
			data     string
			strategy string
			evidence string
			verified sql.NullBool
			notes    string
			r        types.Rule
		)
		if err := rows.Scan(&data, &strategy, &evidence, &verified, &notes); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshalling rule: %w", err)
		}
		// Curation columns are authoritative over the stored payload.
		r.Verified = nil
		if verified.Valid {
			r.Verified = types.BoolPtr(verified.Bool)
		}
		r.Notes = notes
		origin := types.Origin{Strategy: strategy}
		if err := json.Unmarshal([]byte(evidence), &origin.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshalling evidence: %w", err)
		}
		if origin.Strategy != "" || len(origin.Evidence) > 0 {
			r.Origin = &origin
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// SetVerified marks a rule as verified (or not) with optional notes.
func (s *Store) SetVerified(ctx context.Context, reference string, verified bool, notes string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rules SET verified = ?, notes = CASE WHEN ? = '' THEN notes ELSE ? END, updated_at = ?
		WHERE reference = ?
	`, verified, notes, notes, time.Now().UTC(), reference)
	if err != nil {
		return fmt.Errorf("updating rule %s: %w", reference, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return nil
}

// CorpusStats summarizes the stored corpus.
type CorpusStats struct {
	Rules      int            `json:"rules"`
	Verified   int            `json:"verified"`
	Runs       int            `json:"runs"`
	LLMCalls   int            `json:"llm_calls"`
	ByChapter  map[string]int `json:"by_chapter"`
	ByCategory map[string]int `json:"by_category"`
	ByStrategy map[string]int `json:"by_strategy"`
}

// Stats aggregates counts over the corpus.
func (s *Store) Stats(ctx context.Context) (*CorpusStats, error) {
	st := &CorpusStats{
		ByChapter:  make(map[string]int),
		ByCategory: make(map[string]int),
		ByStrategy: make(map[string]int),
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM rules),
			(SELECT COUNT(*) FROM rules WHERE verified = 1),
			(SELECT COUNT(*) FROM runs),
			(SELECT COUNT(*) FROM llm_calls)
	`)
	if err := row.Scan(&st.Rules, &st.Verified, &st.Runs, &st.LLMCalls); err != nil {
		return nil, fmt.Errorf("counting corpus: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"chapter", st.ByChapter},
		{"category", st.ByCategory},
		{"strategy", st.ByStrategy},
	}
	for _, g := range groups {
		if err := s.countBy(ctx, g.column, g.into); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// countBy groups rules by a fixed column name.
func (s *Store) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, "SELECT "+column+", COUNT(*) FROM rules GROUP BY "+column)
	if err != nil {
		return fmt.Errorf("grouping by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning %s group: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}
