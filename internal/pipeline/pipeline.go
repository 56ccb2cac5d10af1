// Package pipeline runs extraction strategies over a document and turns
// their candidates into a deduplicated, validated rule set.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/dcpr/internal/dedup"
	"github.com/jackzampolin/dcpr/internal/llmextract"
	"github.com/jackzampolin/dcpr/internal/metrics"
	"github.com/jackzampolin/dcpr/internal/types"
	"github.com/jackzampolin/dcpr/internal/validate"
)

// Report is the outcome of one run.
type Report struct {
	RunID      string        `json:"run_id"`
	Document   string        `json:"document"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Strategies []string      `json:"strategies"`

	// Rules is the deduplicated set with unique references. Ready is the
	// subset that passed validation.
	Rules []types.Rule `json:"rules"`
	Ready []types.Rule `json:"-"`

	Dropped    []dedup.Dropped          `json:"-"`
	Audit      []AuditEntry             `json:"audit,omitempty"`
	Chunks     []llmextract.ChunkResult `json:"chunks,omitempty"`
	Stats      Stats                    `json:"stats"`
	Validation *validate.Report         `json:"validation"`
	Comparison *Comparison              `json:"comparison,omitempty"`
}

// Pipeline runs registered strategies.
type Pipeline struct {
	registry  *Registry
	validator *validate.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a pipeline.
func New(registry *Registry, v *validate.Validator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{registry: registry, validator: v, logger: logger}
}

// SetMetrics sets the metrics sink.
func (p *Pipeline) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Registry returns the strategy registry.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Run executes the named strategies (all registered when none are named)
// under a fresh run ID.
func (p *Pipeline) Run(ctx context.Context, doc *types.Document, names ...string) (*Report, error) {
	return p.RunWithID(ctx, uuid.New().String(), doc, names...)
}

// RunWithID executes the named strategies in order, then deduplicates,
// makes references unique and validates. Strategy errors abort the run.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, doc *types.Document, names ...string) (*Report, error) {
	strategies, err := p.registry.Resolve(names...)
	if err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: no strategies registered", ErrStrategyNotFound)
	}

	start := time.Now()
	report := &Report{
		RunID:     runID,
		Document:  doc.Name,
		StartedAt: start.UTC(),
		Stats:     newStats(),
	}
	logger := p.logger.With("run_id", runID)

	var candidates []types.Rule
	for _, s := range strategies {
		logger.Info("running strategy", "strategy", s.Name())
		out, err := s.Extract(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		report.Strategies = append(report.Strategies, s.Name())
		p.collect(report, s.Name(), out)
		candidates = append(candidates, out.Rules...)
	}
	report.Stats.Candidates = len(candidates)

	deduped := dedup.Dedup(candidates)
	report.Dropped = deduped.Dropped
	report.Stats.Duplicates = len(deduped.Dropped)
	p.metrics.AddDuplicates(len(deduped.Dropped))

	report.Rules = deduped.Rules
	if len(strategies) >= 2 {
		report.Comparison = Compare(report.Rules, strategies[0].Name(), strategies[1].Name())
	}
	report.Stats.Renamed = UniqueReferences(report.Rules)

	report.Validation = p.validator.ValidateAll(report.Rules)
	report.Ready = report.Validation.Ready(report.Rules)
	p.metrics.ObserveValidation(report.Validation.Passed, report.Validation.Failed,
		report.Validation.Errors, report.Validation.Warnings)

	report.Stats.count(report.Rules)
	report.Stats.Ready = len(report.Ready)
	report.Duration = time.Since(start)
	p.metrics.ObserveRun(report.Duration)

	logger.Info("run complete",
		"rules", report.Stats.Rules,
		"ready", report.Stats.Ready,
		"duplicates", report.Stats.Duplicates,
		"verdict", report.Validation.Verdict,
		"duration", report.Duration)
	return report, nil
}

func (p *Pipeline) collect(report *Report, strategy string, out *Output) {
	report.Stats.Chapters += out.Chapters
	report.Stats.Sections += out.Sections
	report.Audit = append(report.Audit, out.Audit...)
	report.Chunks = append(report.Chunks, out.Chunks...)

	p.metrics.AddStructure(out.Chapters, out.Sections)
	p.metrics.AddRules(strategy, len(out.Rules))
	for _, a := range out.Audit {
		report.Stats.Noise[a.Class]++
		p.metrics.AddSpans(string(a.Class), 1)
	}
	if valid := out.Sections - len(out.Audit); valid > 0 {
		p.metrics.AddSpans(string(types.SpanValid), valid)
	}
	for _, c := range out.Chunks {
		report.Stats.Chunks++
		if c.Status == types.ChunkFailed {
			report.Stats.ChunkFailures++
		}
		p.metrics.ObserveChunk(string(c.Status))
	}
}
