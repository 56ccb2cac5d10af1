// Package llmextract implements the chunked LLM rule extraction strategy.
//
// Chunks are processed sequentially behind a rate gate. A failing chunk is
// recorded with its reason and contributes no rules; the batch continues.
package llmextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/prompts"
	"github.com/jackzampolin/dcpr/internal/prompts/extract_rules"
	"github.com/jackzampolin/dcpr/internal/providers"
	"github.com/jackzampolin/dcpr/internal/types"
)

// StrategyName tags rules produced by this strategy.
const StrategyName = "llm"

// Options configures the strategy.
type Options struct {
	ChunkSize   int
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChunkResult is the outcome of one chunk call.
type ChunkResult struct {
	Index  int               `json:"index"`
	Offset int               `json:"offset"`
	Status types.ChunkStatus `json:"status"`
	Rules  int               `json:"rules"`
	Reason string            `json:"reason,omitempty"`
}

// Batch is the result of a full extraction pass.
type Batch struct {
	Rules  []types.Rule  `json:"rules"`
	Chunks []ChunkResult `json:"chunks"`
}

// Failed returns the number of failed chunks.
func (b *Batch) Failed() int {
	n := 0
	for _, c := range b.Chunks {
		if c.Status == types.ChunkFailed {
			n++
		}
	}
	return n
}

// CallRecorder receives every chat result, successful or not.
type CallRecorder interface {
	RecordCall(ctx context.Context, chunk Chunk, promptKey string, result *providers.ChatResult)
}

// Strategy extracts rules by sending document chunks to an LLM.
type Strategy struct {
	client   providers.LLMClient
	gate     providers.Gate
	lib      *patterns.Library
	resolver *prompts.Resolver
	opts     Options
	recorder CallRecorder
	logger   *slog.Logger
}

// New creates a strategy. A nil gate means no pacing between chunks.
func New(client providers.LLMClient, gate providers.Gate, lib *patterns.Library, opts Options) *Strategy {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if gate == nil {
		gate = providers.NewFixedIntervalGate(0)
	}
	return &Strategy{
		client: client,
		gate:   gate,
		lib:    lib,
		opts:   opts,
		logger: slog.Default(),
	}
}

// SetLogger sets the logger.
func (s *Strategy) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetResolver sets the prompt resolver used for overrides and registers
// the extraction prompts with it.
func (s *Strategy) SetResolver(r *prompts.Resolver) {
	if r != nil {
		extract_rules.Register(r)
	}
	s.resolver = r
}

// SetRecorder sets the call recorder.
func (s *Strategy) SetRecorder(r CallRecorder) {
	s.recorder = r
}

// Extract runs every chunk of doc. The only error returned is context
// cancellation or a broken prompt template; chunk failures are recorded
// in the batch.
func (s *Strategy) Extract(ctx context.Context, doc *types.Document) (*Batch, error) {
	lo, hi := s.lib.ChapterRange()
	p, err := extract_rules.Build(s.resolver, extract_rules.NewSystemData(s.lib.CategoryNames(), lo, hi))
	if err != nil {
		return nil, fmt.Errorf("build extraction prompt: %w", err)
	}

	chunks := Split(doc.Text, s.opts.ChunkSize)
	batch := &Batch{Rules: []types.Rule{}, Chunks: make([]ChunkResult, 0, len(chunks))}

	s.logger.Info("llm extraction started",
		"document", doc.Name,
		"chunks", len(chunks),
		"chunk_size", s.opts.ChunkSize,
		"provider", s.client.Name())

	for _, chunk := range chunks {
		if err := s.gate.Wait(ctx); err != nil {
			return batch, err
		}

		rules, err := s.extractChunk(ctx, p, doc, chunk, len(chunks))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return batch, ctxErr
		}

		res := ChunkResult{Index: chunk.Index, Offset: chunk.Offset}
		if err != nil {
			res.Status = types.ChunkFailed
			res.Reason = err.Error()
			s.logger.Warn("chunk extraction failed",
				"error", &types.ExternalServiceError{Chunk: chunk.Index, Offset: chunk.Offset, Err: err})
		} else {
			res.Status = types.ChunkOK
			res.Rules = len(rules)
			batch.Rules = append(batch.Rules, rules...)
			s.logger.Debug("chunk extracted", "chunk", chunk.Index, "rules", len(rules))
		}
		batch.Chunks = append(batch.Chunks, res)
	}

	s.logger.Info("llm extraction finished",
		"rules", len(batch.Rules),
		"failed_chunks", batch.Failed())
	return batch, nil
}

func (s *Strategy) extractChunk(ctx context.Context, p *extract_rules.Prompts, doc *types.Document, chunk Chunk, total int) ([]types.Rule, error) {
	req, err := p.Request(extract_rules.ChunkData{
		Number: chunk.Index + 1,
		Total:  total,
		Offset: chunk.Offset,
		Text:   chunk.Text,
	}, s.opts.Model)
	if err != nil {
		return nil, err
	}
	if s.opts.Temperature > 0 {
		req.Temperature = s.opts.Temperature
	}
	if s.opts.MaxTokens > 0 {
		req.MaxTokens = s.opts.MaxTokens
	}

	result, err := s.client.Chat(ctx, req)
	s.observe(err)
	if s.recorder != nil && result != nil {
		s.recorder.RecordCall(ctx, chunk, extract_rules.UserKey, result)
	}
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Success {
		return nil, errors.New("provider returned no result")
	}

	parsed, err := extract_rules.ParseResult(result.ParsedJSON)
	if err != nil {
		return nil, err
	}

	rules := make([]types.Rule, 0, len(parsed.Rules))
	for _, rec := range parsed.Rules {
		rules = append(rules, toRule(rec, doc, chunk))
	}
	return rules, nil
}

func (s *Strategy) observe(err error) {
	obs, ok := s.gate.(providers.RateLimitObserver)
	if !ok {
		return
	}
	if rl, isRL := providers.AsRateLimit(err); isRL {
		obs.ObserveRateLimit(rl.RetryAfter)
		return
	}
	if err == nil {
		obs.ObserveSuccess()
	}
}

// toRule converts a model record into a rule. Fields are taken as
// returned; validation decides whether the record is usable.
func toRule(rec extract_rules.Record, doc *types.Document, chunk Chunk) types.Rule {
	r := types.Rule{
		Chapter:             strings.TrimSpace(rec.Chapter),
		Section:             strings.TrimSpace(rec.Section),
		Clause:              strings.TrimSpace(rec.Clause),
		SubClause:           nonEmpty(rec.SubClause),
		Title:               rec.Title,
		Summary:             rec.Summary,
		FullText:            rec.FullText,
		Category:            nonEmpty(rec.Category),
		ApplicableZones:     rec.ApplicableZones,
		ApplicableDistricts: rec.ApplicableDistricts,
		IsMumbaiSpecific:    rec.IsMumbaiSpecific,
		Verified:            types.BoolPtr(false),
		Origin:              &types.Origin{Strategy: StrategyName, Offset: chunk.Offset},
	}
	r.Reference = types.DeriveReference(r.Chapter, r.Clause)
	if r.ApplicableZones == nil {
		r.ApplicableZones = []string{}
	}
	if len(r.ApplicableDistricts) == 0 {
		r.ApplicableDistricts = []string{types.DistrictAll}
	}
	if page := doc.PageAt(chunk.Offset); page > 0 {
		r.PdfPage = types.IntPtr(page)
	}
	return r
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
