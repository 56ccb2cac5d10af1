package pipeline

import (
	"context"

	"github.com/jackzampolin/dcpr/internal/llmextract"
	"github.com/jackzampolin/dcpr/internal/types"
)

// Strategy produces rule candidates from a document.
type Strategy interface {
	// Name returns the strategy identifier (e.g., "regex", "llm").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Extract runs the strategy over the whole document. Errors are fatal
	// for the run; recoverable problems are reported in the Output.
	Extract(ctx context.Context, doc *types.Document) (*Output, error)
}

// AuditEntry records a span dropped as noise.
type AuditEntry struct {
	Strategy string          `json:"strategy"`
	Chapter  int             `json:"chapter"`
	Clause   string          `json:"clause,omitempty"`
	Span     types.Span      `json:"span"`
	Class    types.SpanClass `json:"class"`
	Preview  string          `json:"preview"`
}

// Output is what one strategy produced.
type Output struct {
	Rules  []types.Rule              `json:"rules"`
	Audit  []AuditEntry              `json:"audit,omitempty"`
	Chunks []llmextract.ChunkResult `json:"chunks,omitempty"`

	Chapters int `json:"chapters"`
	Sections int `json:"sections"`
}
