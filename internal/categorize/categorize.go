// Package categorize tags text windows with a regulatory category,
// keyword evidence, zones and jurisdiction using the pattern library.
package categorize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/types"
)

// MaxEvidence is the number of matched substrings kept as evidence.
const MaxEvidence = 3

// clauseToken recovers a clause number: digits with optional dotted parts,
// then punctuation or whitespace and a capital letter.
var clauseToken = regexp.MustCompile(`(?:^|[^\d.])(\d{1,3}(?:\.\d{1,3})*)(?:[.:)]|\s*[-–—])?\s+[A-Z]`)

// Window is a chunk of text plus surrounding context used only for clause
// number recovery.
type Window struct {
	Text   string
	Before string
	After  string
}

// WindowAt cuts the window for span with up to context bytes on each side,
// aligned to rune boundaries.
func WindowAt(text string, span types.Span, context int) Window {
	w := Window{Text: span.Slice(text)}
	if context <= 0 {
		return w
	}

	start := span.Start - context
	if start < 0 {
		start = 0
	}
	for start < span.Start && !utf8.RuneStart(text[start]) {
		start++
	}
	end := span.End + context
	if end > len(text) {
		end = len(text)
	}
	for end > span.End && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}

	w.Before = text[start:span.Start]
	w.After = text[span.End:end]
	return w
}

// Match is the categorization of one window.
type Match struct {
	Category string
	Evidence []string

	// DistrictSet names the matched jurisdiction, "" when none matched.
	DistrictSet    string
	Districts      []string
	MumbaiSpecific bool
	Zones          []string

	// Clause is the recovered clause number, "" when none was found.
	Clause string
}

// Categorizer matches windows against the pattern library. It holds no
// mutable state; the same window always yields the same Match.
type Categorizer struct {
	lib *patterns.Library
}

// New creates a categorizer over lib.
func New(lib *patterns.Library) *Categorizer {
	return &Categorizer{lib: lib}
}

// Categorize tags the window. The first category in library order with a
// matching pattern wins, even when later categories would also match.
func (c *Categorizer) Categorize(w Window) Match {
	m := Match{
		Category:  types.CategoryGeneral,
		Districts: []string{types.DistrictAll},
		Zones:     []string{},
	}

	for _, cat := range c.lib.Categories() {
		evidence := collectEvidence(cat.Patterns, w.Text)
		if len(evidence) > 0 {
			m.Category = cat.Name
			m.Evidence = evidence
			break
		}
	}

	for _, set := range c.lib.Districts() {
		if matchesAny(set.Triggers, w.Text) {
			m.DistrictSet = set.Name
			m.Districts = append([]string(nil), set.Members...)
			m.MumbaiSpecific = set.MumbaiSpecific
			break
		}
	}

	if zones := c.lib.Zones(); zones != nil {
		seen := make(map[string]bool)
		for _, z := range zones.FindAllString(w.Text, -1) {
			if !seen[z] {
				seen[z] = true
				m.Zones = append(m.Zones, z)
			}
		}
	}

	m.Clause = recoverClause(w)
	return m
}

func collectEvidence(res []*regexp.Regexp, text string) []string {
	var evidence []string
	seen := make(map[string]bool)
	for _, re := range res {
		for _, hit := range re.FindAllString(text, -1) {
			key := strings.ToLower(hit)
			if seen[key] {
				continue
			}
			seen[key] = true
			evidence = append(evidence, hit)
			if len(evidence) == MaxEvidence {
				return evidence
			}
		}
	}
	return evidence
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// recoverClause prefers a clause number inside the chunk, then the nearest
// one before it, then the first one after it.
func recoverClause(w Window) string {
	if m := clauseToken.FindStringSubmatch(w.Text); m != nil {
		return m[1]
	}
	if all := clauseToken.FindAllStringSubmatch(w.Before, -1); len(all) > 0 {
		return all[len(all)-1][1]
	}
	if m := clauseToken.FindStringSubmatch(w.After); m != nil {
		return m[1]
	}
	return ""
}
