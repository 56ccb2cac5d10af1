package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackzampolin/dcpr/internal/categorize"
	"github.com/jackzampolin/dcpr/internal/extract"
	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/segment"
	"github.com/jackzampolin/dcpr/internal/types"
)

// DefaultContextWindow is the number of bytes on each side of a span
// searched for a clause number.
const DefaultContextWindow = 200

const previewRunes = 60

// RegexOptions configures the structural strategy.
type RegexOptions struct {
	ContextWindow int
	Extract       extract.Options
}

// RegexStrategy segments the document into chapters and sections and
// turns each section into rule candidates.
type RegexStrategy struct {
	lib     *patterns.Library
	seg     *segment.Segmenter
	ext     *extract.Extractor
	cat     *categorize.Categorizer
	context int
	logger  *slog.Logger
}

// NewRegexStrategy creates the structural strategy.
func NewRegexStrategy(lib *patterns.Library, opts RegexOptions, logger *slog.Logger) *RegexStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = DefaultContextWindow
	}
	return &RegexStrategy{
		lib:     lib,
		seg:     segment.New(lib, logger),
		ext:     extract.New(opts.Extract),
		cat:     categorize.New(lib),
		context: opts.ContextWindow,
		logger:  logger,
	}
}

func (s *RegexStrategy) Name() string { return "regex" }

func (s *RegexStrategy) Description() string {
	return "Chapter and clause segmentation with pattern categorization"
}

// Extract implements Strategy.
func (s *RegexStrategy) Extract(ctx context.Context, doc *types.Document) (*Output, error) {
	chapters := chaptersOf(s.seg, doc.Text, s.logger)
	tagger := s.cat.NewTagger()
	out := &Output{Rules: []types.Rule{}, Chapters: len(chapters)}

	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, sec := range s.seg.Sections(doc.Text, ch) {
			out.Sections++
			c := s.ext.Extract(doc.Text, ch, sec)
			if c.Class.IsNoise() {
				out.Audit = append(out.Audit, auditEntry(s.Name(), c))
				continue
			}

			w := categorize.WindowAt(doc.Text, sec.Span, s.context)
			var m categorize.Match
			if sec.Unstructured {
				m, _ = tagger.Tag(w)
				c.SetClause(m.Clause)
			} else {
				m = s.cat.Categorize(w)
			}

			rule := newRule(doc, c, s.Name())
			categorize.Apply(&rule, m)
			out.Rules = append(out.Rules, categorize.Expand(rule, m)...)
		}
	}

	s.logger.Debug("regex extraction finished",
		"chapters", out.Chapters,
		"sections", out.Sections,
		"rules", len(out.Rules),
		"noise", len(out.Audit))
	return out, nil
}

// chaptersOf returns the detected chapters or the implicit chapter 0.
func chaptersOf(seg *segment.Segmenter, text string, logger *slog.Logger) []types.Chapter {
	chapters := seg.Chapters(text)
	if len(chapters) == 0 {
		logger.Warn("no chapter headings found, treating document as one implicit chapter")
		chapters = []types.Chapter{segment.ImplicitChapter(text)}
	}
	return chapters
}

// chapterAt returns the chapter whose span contains offset.
func chapterAt(chapters []types.Chapter, offset int) types.Chapter {
	for _, ch := range chapters {
		if offset >= ch.Span.Start && offset < ch.Span.End {
			return ch
		}
	}
	return chapters[0]
}

// chapterLabel is the chapter number for the record. Under the implicit
// chapter a numeric clause id supplies it.
func chapterLabel(ch types.Chapter, clause string) string {
	if ch.Number == 0 {
		head, _, _ := strings.Cut(clause, ".")
		if n, err := strconv.Atoi(head); err == nil && n > 0 {
			return head
		}
	}
	return ch.Label()
}

func newRule(doc *types.Document, c extract.Candidate, strategy string) types.Rule {
	chapter := chapterLabel(c.Chapter, c.Clause)
	r := types.Rule{
		Chapter:             chapter,
		Section:             c.SectionNo,
		Clause:              c.Clause,
		SubClause:           c.SubClause,
		Reference:           types.DeriveReference(chapter, c.Clause),
		Title:               c.Title,
		Summary:             c.Summary,
		FullText:            c.FullText,
		ApplicableZones:     []string{},
		ApplicableDistricts: []string{types.DistrictAll},
		Verified:            types.BoolPtr(false),
		Origin:              &types.Origin{Strategy: strategy, Offset: c.Section.Span.Start},
	}
	if page := doc.PageAt(c.Section.Span.Start); page > 0 {
		r.PdfPage = types.IntPtr(page)
	}
	return r
}

func auditEntry(strategy string, c extract.Candidate) AuditEntry {
	return AuditEntry{
		Strategy: strategy,
		Chapter:  c.Chapter.Number,
		Clause:   c.Clause,
		Span:     c.Section.Span,
		Class:    c.Class,
		Preview:  types.Preview(c.FullText, previewRunes),
	}
}
