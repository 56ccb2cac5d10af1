// Package extract derives rule candidates from section spans (the regex
// extraction path) and classifies span quality.
package extract

import (
	"regexp"
	"strings"

	"github.com/jackzampolin/dcpr/internal/types"
)

// DefaultSummaryMaxLen caps summaries, in runes.
const DefaultSummaryMaxLen = 150

// maxTitleRunes caps rule titles derived from the summary.
const maxTitleRunes = 80

// sentenceEnd ends the first sentence: a terminator followed by whitespace
// or end of text. Decimals such as "1.5" do not qualify.
var sentenceEnd = regexp.MustCompile(`[.;:](?:\s|$)`)

// Options configures the extractor.
type Options struct {
	MinSummaryLen int
	SummaryMaxLen int
}

// Extractor turns a section span into a rule candidate.
type Extractor struct {
	classifier *Classifier
	maxSummary int
}

// New creates an extractor.
func New(opts Options) *Extractor {
	if opts.SummaryMaxLen <= 0 {
		opts.SummaryMaxLen = DefaultSummaryMaxLen
	}
	return &Extractor{
		classifier: NewClassifier(opts.MinSummaryLen),
		maxSummary: opts.SummaryMaxLen,
	}
}

// Classifier returns the span classifier in use.
func (e *Extractor) Classifier() *Classifier {
	return e.classifier
}

// Candidate is the structural part of a rule plus its span class.
type Candidate struct {
	Chapter types.Chapter
	Section types.Section

	// Clause is the dotted clause id; empty for unstructured sections.
	Clause    string
	SectionNo string
	SubClause *string

	Title    string
	Summary  string
	FullText string
	Class    types.SpanClass
}

// Extract builds the candidate for one section of a chapter.
func (e *Extractor) Extract(text string, ch types.Chapter, sec types.Section) Candidate {
	full := sec.Span.Slice(text)
	body := types.Span{Start: sec.BodyStart, End: sec.Span.End}.Slice(text)

	c := Candidate{
		Chapter:  ch,
		Section:  sec,
		Clause:   sec.ID,
		FullText: full,
	}
	c.SectionNo, c.SubClause = SplitClause(sec.ID)
	c.Summary = Summarize(body, e.maxSummary)
	c.Title = titleFrom(c.Summary)
	c.Class = e.classifier.Classify(c.Summary, c.FullText)
	return c
}

// ExtractWindow builds a candidate for an arbitrary span with no clause
// marker of its own, such as a fixed-size keyword window.
func (e *Extractor) ExtractWindow(text string, ch types.Chapter, span types.Span) Candidate {
	full := span.Slice(text)
	c := Candidate{
		Chapter:  ch,
		Section:  types.Section{Span: span, BodyStart: span.Start, Unstructured: true},
		FullText: full,
	}
	c.Summary = Summarize(full, e.maxSummary)
	c.Title = titleFrom(c.Summary)
	c.Class = e.classifier.Classify(c.Summary, c.FullText)
	return c
}

// SetClause assigns a clause id recovered outside the span and rederives
// the section number and sub-clause from it.
func (c *Candidate) SetClause(id string) {
	c.Clause = id
	c.SectionNo, c.SubClause = SplitClause(id)
}

// Summarize returns the first sentence of text with whitespace collapsed,
// capped at maxRunes on a word boundary.
func Summarize(text string, maxRunes int) string {
	s := strings.Join(strings.Fields(text), " ")
	if loc := sentenceEnd.FindStringIndex(s); loc != nil {
		// Keep the terminator, drop the whitespace after it.
		s = s[:loc[0]+1]
	}

	runes := []rune(s)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return s
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// SplitClause derives the section number and optional sub-clause from a
// dotted clause id: "3.2.1" -> ("2", nil), "3.2.1.4" -> ("2", "4").
func SplitClause(id string) (string, *string) {
	if id == "" {
		return "", nil
	}
	parts := strings.Split(id, ".")
	section := parts[0]
	if len(parts) >= 2 {
		section = parts[1]
	}
	if len(parts) >= 4 {
		sub := strings.Join(parts[3:], ".")
		return section, &sub
	}
	return section, nil
}

func titleFrom(summary string) string {
	t := strings.TrimRight(summary, ".;: ")
	runes := []rune(t)
	if len(runes) > maxTitleRunes {
		t = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return t
}
