package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CategoryGeneral is assigned when no category pattern matches.
const CategoryGeneral = "General"

// DistrictAll marks a rule that applies in every district.
const DistrictAll = "All"

// Rule is the terminal record of the extraction pipeline.
//
// Required fields are plain strings where "" means missing. Optional fields
// are pointers so absence is distinct from a zero value.
type Rule struct {
	Chapter   string  `json:"chapter" validate:"required,dcpr_chapter"`
	Section   string  `json:"section" validate:"required"`
	Clause    string  `json:"clause" validate:"required"`
	SubClause *string `json:"subClause,omitempty"`
	Reference string  `json:"reference"`

	Title    string `json:"title"`
	Summary  string `json:"summary" validate:"required"`
	FullText string `json:"fullText" validate:"required"`

	Category    *string `json:"category,omitempty"`
	Subcategory *string `json:"subcategory,omitempty"`

	ApplicableZones     []string `json:"applicableZones"`
	ApplicableDistricts []string `json:"applicableDistricts"`
	IsMumbaiSpecific    bool     `json:"isMumbaiSpecific"`

	Tables   []json.RawMessage `json:"tables,omitempty"`
	Formulas []json.RawMessage `json:"formulas,omitempty"`

	PdfPage  *int   `json:"pdfPage,omitempty" validate:"omitempty,min=1"`
	Verified *bool  `json:"verified,omitempty"`
	Notes    string `json:"notes,omitempty"`

	// Origin is producer bookkeeping; it is not part of the serialized record.
	Origin *Origin `json:"-"`
}

// Origin records where a rule came from.
type Origin struct {
	Strategy string   `json:"strategy"`
	Offset   int      `json:"offset"`
	Evidence []string `json:"evidence,omitempty"`
}

// CategoryName returns the category or "" when absent.
func (r *Rule) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}

// DistrictKey returns the applicable districts as one stable string.
func (r *Rule) DistrictKey() string {
	if len(r.ApplicableDistricts) == 0 {
		return DistrictAll
	}
	return strings.Join(r.ApplicableDistricts, ",")
}

// DeriveReference builds the reference from chapter and clause.
func DeriveReference(chapter, clause string) string {
	if clause == "" {
		return fmt.Sprintf("%s/-", chapter)
	}
	return fmt.Sprintf("%s/%s", chapter, clause)
}

// ScopedReference appends a district scope to a reference so fan-out
// records stay distinct. District "All" leaves the reference unchanged.
func ScopedReference(ref, district string) string {
	if district == "" || district == DistrictAll {
		return ref
	}
	slug := strings.ToLower(strings.Join(strings.Fields(district), "-"))
	return ref + "@" + slug
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// Preview shortens s to at most n runes for log output, collapsing
// whitespace. Persisted text is never passed through Preview.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
