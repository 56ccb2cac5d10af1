package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/dcpr/internal/llmcall"
	"github.com/jackzampolin/dcpr/internal/types"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "dcpr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func testRule(ref, chapter, clause, category string, districts ...string) types.Rule {
	if len(districts) == 0 {
		districts = []string{types.DistrictAll}
	}
	return types.Rule{
		Chapter:             chapter,
		Section:             "1",
		Clause:              clause,
		Reference:           ref,
		Summary:             "Summary for " + clause,
		FullText:            clause + " Full text",
		Category:            types.StringPtr(category),
		ApplicableZones:     []string{},
		ApplicableDistricts: districts,
		Origin:              &types.Origin{Strategy: "regex"},
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcpr.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
	assert.Equal(t, path, s.Path())
}

func TestSaveRules_Evidence(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, Run{ID: "run-1", Document: "dcpr", StartedAt: time.Now()}))
	parking := testRule("6/6.4", "6", "6.4", "Parking")
	parking.Origin.Evidence = []string{"Parking", "car space"}
	general := testRule("3/3.1", "3", "3.1", types.CategoryGeneral)
	_, err := s.SaveRules(ctx, "run-1", []types.Rule{general, parking})
	require.NoError(t, err)

	rules, err := s.ListRules(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.NotNil(t, rules[0].Origin)
	assert.Empty(t, rules[0].Origin.Evidence)
	require.NotNil(t, rules[1].Origin)
	assert.Equal(t, []string{"Parking", "car space"}, rules[1].Origin.Evidence)
	assert.Equal(t, "regex", rules[1].Origin.Strategy)

	// Re-extraction replaces evidence along with the category.
	parking.Origin = &types.Origin{Strategy: "keyword", Evidence: []string{"parking"}}
	_, err = s.SaveRules(ctx, "run-1", []types.Rule{parking})
	require.NoError(t, err)
	rules, err = s.ListRules(ctx, Filter{Strategy: "keyword"})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"parking"}, rules[0].Origin.Evidence)
}

func TestSaveRules_UpsertPreservesCuration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, Run{ID: "run-1", Document: "dcpr", StartedAt: time.Now()}))
	n, err := s.SaveRules(ctx, "run-1", []types.Rule{testRule("3/3.2.1", "3", "3.2.1", "FSI")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.SetVerified(ctx, "3/3.2.1", true, "checked against gazette"))

	updated := testRule("3/3.2.1", "3", "3.2.1", "FSI")
	updated.Summary = "Revised summary"
	updated.Verified = types.BoolPtr(false)
	_, err = s.SaveRules(ctx, "run-1", []types.Rule{updated})
	require.NoError(t, err)

	rules, err := s.ListRules(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Revised summary", rules[0].Summary)
	require.NotNil(t, rules[0].Verified)
	assert.True(t, *rules[0].Verified)
	assert.Equal(t, "checked against gazette", rules[0].Notes)
	assert.Equal(t, "regex", rules[0].Origin.Strategy)
}

func TestSetVerified_NotFound(t *testing.T) {
	s := setupTestStore(t)
	err := s.SetVerified(context.Background(), "9/9.9", true, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRules_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.SaveRules(ctx, "", []types.Rule{
		testRule("6/6.4@mumbai-city", "6", "6.4", "Parking", "Mumbai City"),
		testRule("3/3.1", "3", "3.1", "General"),
		testRule("6/6.4@mumbai-suburban", "6", "6.4", "Parking", "Mumbai Suburban"),
		testRule("10/10.1", "10", "10.1", "Heritage"),
	})
	require.NoError(t, err)

	all, err := s.ListRules(ctx, Filter{})
	require.NoError(t, err)
	var refs []string
	for _, r := range all {
		refs = append(refs, r.Reference)
	}
	assert.Equal(t, []string{"3/3.1", "6/6.4@mumbai-city", "6/6.4@mumbai-suburban", "10/10.1"}, refs)

	parking, err := s.ListRules(ctx, Filter{Category: "Parking", District: "Mumbai Suburban"})
	require.NoError(t, err)
	require.Len(t, parking, 1)
	assert.Equal(t, "6/6.4@mumbai-suburban", parking[0].Reference)

	limited, err := s.ListRules(ctx, Filter{Chapter: "6", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	unverified, err := s.ListRules(ctx, Filter{Verified: types.BoolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, unverified, 4)
}

func TestRunsAndStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	stats, _ := json.Marshal(map[string]int{"rules": 2})
	require.NoError(t, s.SaveRun(ctx, Run{
		ID:         "run-1",
		Document:   "dcpr",
		Strategies: []string{"regex", "llm"},
		StartedAt:  time.Now().Add(-time.Hour),
		Duration:   1500 * time.Millisecond,
		Rules:      2,
		Ready:      1,
		Verdict:    "fail",
		Stats:      stats,
	}))
	require.NoError(t, s.SaveRun(ctx, Run{ID: "run-2", Document: "dcpr", StartedAt: time.Now()}))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, []string{"regex", "llm"}, runs[1].Strategies)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.JSONEq(t, `{"rules":2}`, string(runs[1].Stats))

	_, err = s.SaveRules(ctx, "run-1", []types.Rule{
		testRule("3/3.1", "3", "3.1", "General"),
		testRule("3/3.2", "3", "3.2", "FSI"),
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertCall(ctx, &llmcall.Call{ID: "c1", RunID: "run-1", Timestamp: time.Now(), PromptKey: "k", Provider: "mock", Success: true}))

	cs, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cs.Rules)
	assert.Equal(t, 2, cs.Runs)
	assert.Equal(t, 1, cs.LLMCalls)
	assert.Equal(t, 2, cs.ByChapter["3"])
	assert.Equal(t, 1, cs.ByCategory["FSI"])
	assert.Equal(t, 2, cs.ByStrategy["regex"])
}

func TestCalls(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	temp := 0.1
	now := time.Now()
	require.NoError(t, s.InsertCall(ctx, &llmcall.Call{
		ID: "a", RunID: "run-1", Timestamp: now, ChunkIndex: 0, PromptKey: "extract_rules.user",
		Provider: "mock", Model: "m", Temperature: &temp, InputTokens: 10, OutputTokens: 2, Success: true,
	}))
	require.NoError(t, s.InsertCall(ctx, &llmcall.Call{
		ID: "b", RunID: "run-1", Timestamp: now.Add(time.Second), ChunkIndex: 1, PromptKey: "extract_rules.user",
		Provider: "mock", Success: false, ErrorType: "json_parse", Error: "bad",
	}))

	calls, err := s.ListCalls(ctx, CallFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].ID)
	require.NotNil(t, calls[0].Temperature)
	assert.Equal(t, 0.1, *calls[0].Temperature)
	assert.Nil(t, calls[1].Temperature)

	failed, err := s.ListCalls(ctx, CallFilter{Success: types.BoolPtr(false)})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "json_parse", failed[0].ErrorType)

	summary := llmcall.Summarize(calls)
	assert.Equal(t, 1, summary.ErrorCount)
}
