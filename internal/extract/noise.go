package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/dcpr/internal/segment"
	"github.com/jackzampolin/dcpr/internal/types"
)

// DefaultMinSummaryLen is the shortest summary that can become a rule.
const DefaultMinSummaryLen = 10

// pageToken is one page-number token: "12", "Page 12", "p. 12 of 300".
const pageToken = `(?:(?:page|pg\.?|p\.)\s*)?\d{1,4}(?:\s*(?:of|/)\s*\d{1,4})?`

var pageOnly = regexp.MustCompile(fmt.Sprintf(`(?i)^%s(?:\s+%s)*$`, pageToken, pageToken))

// NoiseRule is one (predicate, outcome) step of span classification.
type NoiseRule struct {
	Class types.SpanClass
	Match func(summary, fullText string) bool
}

// Classifier assigns exactly one SpanClass to a span by evaluating its
// rules in order; the first matching rule wins, and a span no rule matches
// is valid.
type Classifier struct {
	rules []NoiseRule
}

// NewClassifier builds the classifier. minSummaryLen <= 0 uses the default.
func NewClassifier(minSummaryLen int) *Classifier {
	if minSummaryLen <= 0 {
		minSummaryLen = DefaultMinSummaryLen
	}
	return &Classifier{rules: []NoiseRule{
		{
			Class: types.SpanEmpty,
			Match: func(summary, _ string) bool {
				return strings.TrimSpace(summary) == ""
			},
		},
		{
			Class: types.SpanTooShort,
			Match: func(summary, _ string) bool {
				return utf8.RuneCountInString(strings.TrimSpace(summary)) < minSummaryLen
			},
		},
		{
			Class: types.SpanTableOfContents,
			Match: func(summary, fullText string) bool {
				return segment.TOCLine.MatchString(summary + "\n" + fullText)
			},
		},
		{
			Class: types.SpanPageNumber,
			Match: func(summary, fullText string) bool {
				return pageOnly.MatchString(strings.TrimSpace(summary + " " + fullText))
			},
		},
	}}
}

// Rules returns the ordered classification rules, valid excluded.
func (c *Classifier) Rules() []NoiseRule {
	return append([]NoiseRule(nil), c.rules...)
}

// Classify returns the first matching class, or SpanValid.
func (c *Classifier) Classify(summary, fullText string) types.SpanClass {
	for _, r := range c.rules {
		if r.Match(summary, fullText) {
			return r.Class
		}
	}
	return types.SpanValid
}
