package pipeline

import (
	"context"

	"github.com/jackzampolin/dcpr/internal/llmextract"
	"github.com/jackzampolin/dcpr/internal/types"
)

// LLMStrategy adapts the chunked LLM extractor to the Strategy interface.
type LLMStrategy struct {
	inner *llmextract.Strategy
}

// NewLLMStrategy wraps s.
func NewLLMStrategy(s *llmextract.Strategy) *LLMStrategy {
	return &LLMStrategy{inner: s}
}

func (s *LLMStrategy) Name() string { return llmextract.StrategyName }

func (s *LLMStrategy) Description() string {
	return "Chunked extraction through a structured-output LLM"
}

// Inner returns the wrapped extractor.
func (s *LLMStrategy) Inner() *llmextract.Strategy { return s.inner }

// Extract implements Strategy.
func (s *LLMStrategy) Extract(ctx context.Context, doc *types.Document) (*Output, error) {
	batch, err := s.inner.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &Output{Rules: batch.Rules, Chunks: batch.Chunks}, nil
}
