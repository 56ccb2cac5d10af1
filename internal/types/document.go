package types

import "sort"

// Document is the ingested source text. Immutable once built.
type Document struct {
	// Name identifies the source (usually the file name).
	Name string `json:"name"`
	Text string `json:"-"`

	// PageCount is the total number of pages in the source, 0 if unknown.
	PageCount int `json:"page_count"`

	// PageOffsets holds the byte offset where each page starts, ascending,
	// PageOffsets[0] == 0. Empty when no page boundaries are recoverable.
	PageOffsets []int `json:"page_offsets,omitempty"`

	// PagesEstimated is set when page attribution is a linear estimate from
	// PageCount rather than real page boundaries.
	PagesEstimated bool `json:"pages_estimated,omitempty"`
}

// NewDocument builds a document without page information.
func NewDocument(name, text string) *Document {
	return &Document{Name: name, Text: text}
}

// PageAt returns the 1-based page containing offset, or 0 when the document
// carries no page information.
func (d *Document) PageAt(offset int) int {
	if d == nil {
		return 0
	}
	if len(d.PageOffsets) > 0 {
		// Last page whose start is <= offset.
		idx := sort.Search(len(d.PageOffsets), func(i int) bool {
			return d.PageOffsets[i] > offset
		})
		if idx == 0 {
			return 1
		}
		return idx
	}
	if d.PageCount > 0 && len(d.Text) > 0 {
		if offset < 0 {
			offset = 0
		}
		if offset >= len(d.Text) {
			return d.PageCount
		}
		return offset*d.PageCount/len(d.Text) + 1
	}
	return 0
}
