// Package types provides the document and rule model shared across packages.
// This package has no dependencies on other dcpr packages to avoid import cycles.
package types

import "fmt"

// Span is a half-open byte interval [Start, End) into a document's text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Slice returns the part of text covered by the span, clamped to the text.
func (s Span) Slice(text string) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Chapter is a top-level division detected from a heading marker.
type Chapter struct {
	// Number is the parsed chapter number. 0 marks the implicit chapter used
	// when a document has no detectable headings.
	Number int    `json:"number"`
	Title  string `json:"title"`
	Span   Span   `json:"span"`

	// Flagged marks structural noise: a number outside the chapter
	// enumeration. Rules produced under it fail validation.
	Flagged bool `json:"flagged,omitempty"`
}

// Label returns the chapter number as the string used in rule records.
func (c Chapter) Label() string {
	return fmt.Sprintf("%d", c.Number)
}

// Section is a numbered clause span owned by one chapter.
type Section struct {
	// ID is the dotted clause identifier (e.g. "3.2.1"); empty when
	// Unstructured is set.
	ID   string `json:"id"`
	Span Span   `json:"span"`

	// Unstructured marks the single whole-chapter section produced when a
	// chapter has no clause markers.
	Unstructured bool `json:"unstructured,omitempty"`

	// BodyStart is the offset where the clause text begins, just past the
	// clause marker. Equal to Span.Start for unstructured sections.
	BodyStart int `json:"body_start"`
}
