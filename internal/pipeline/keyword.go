package pipeline

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/dcpr/internal/categorize"
	"github.com/jackzampolin/dcpr/internal/extract"
	"github.com/jackzampolin/dcpr/internal/llmextract"
	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/segment"
	"github.com/jackzampolin/dcpr/internal/types"
)

// DefaultWindowSize is the keyword window size in runes.
const DefaultWindowSize = 1000

// KeywordOptions configures the window scan.
type KeywordOptions struct {
	WindowSize    int
	ContextWindow int
	Extract       extract.Options
}

// KeywordStrategy scans fixed-size windows and categorizes each one,
// recovering a clause id from the surrounding context or numbering it with
// a placeholder.
type KeywordStrategy struct {
	seg     *segment.Segmenter
	ext     *extract.Extractor
	cat     *categorize.Categorizer
	size    int
	context int
	logger  *slog.Logger
}

// NewKeywordStrategy creates the window-scan strategy.
func NewKeywordStrategy(lib *patterns.Library, opts KeywordOptions, logger *slog.Logger) *KeywordStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = DefaultContextWindow
	}
	return &KeywordStrategy{
		seg:     segment.New(lib, logger),
		ext:     extract.New(opts.Extract),
		cat:     categorize.New(lib),
		size:    opts.WindowSize,
		context: opts.ContextWindow,
		logger:  logger,
	}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Description() string {
	return "Fixed-size window scan with keyword categorization"
}

// Extract implements Strategy.
func (s *KeywordStrategy) Extract(ctx context.Context, doc *types.Document) (*Output, error) {
	chapters := chaptersOf(s.seg, doc.Text, s.logger)
	tagger := s.cat.NewTagger()
	out := &Output{Rules: []types.Rule{}, Chapters: len(chapters)}

	for _, win := range llmextract.Split(doc.Text, s.size) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Sections++

		span := types.Span{Start: win.Offset, End: win.Offset + len(win.Text)}
		c := s.ext.ExtractWindow(doc.Text, chapterAt(chapters, win.Offset), span)
		if c.Class.IsNoise() {
			out.Audit = append(out.Audit, auditEntry(s.Name(), c))
			continue
		}

		m, _ := tagger.Tag(categorize.WindowAt(doc.Text, span, s.context))
		c.SetClause(m.Clause)

		rule := newRule(doc, c, s.Name())
		categorize.Apply(&rule, m)
		out.Rules = append(out.Rules, categorize.Expand(rule, m)...)
	}
	return out, nil
}
