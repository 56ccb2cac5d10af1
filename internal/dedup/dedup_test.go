package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/dcpr/internal/types"
)

func rule(ref, district, category, text string) types.Rule {
	r := types.Rule{
		Chapter:             "3",
		Reference:           ref,
		FullText:            text,
		ApplicableDistricts: []string{district},
	}
	if category != "" {
		r.Category = types.StringPtr(category)
	}
	return r
}

func TestDedup_DifferentPdfPageCollapses(t *testing.T) {
	a := rule("3/3.2.1", "All", "FSI", "3.2.1 Basic FSI shall be 1.5 for Residential zones")
	a.PdfPage = types.IntPtr(12)
	b := a
	b.Reference = "3/3.2.1#dup"
	b.PdfPage = types.IntPtr(13)

	res := Dedup([]types.Rule{a, b})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, 12, *res.Rules[0].PdfPage)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, 0, res.Dropped[0].KeptAt)
	assert.Equal(t, 13, *res.Dropped[0].Rule.PdfPage)
}

func TestDedup_KeyComponents(t *testing.T) {
	text := "6.4 Parking spaces shall be provided"
	rules := []types.Rule{
		rule("a", "All", "Parking", text),
		rule("b", "Mumbai City", "Parking", text),
		rule("c", "All", "General", text),
		rule("d", "All", "Parking", text+" for every tenement"),
	}
	res := Dedup(rules)
	assert.Len(t, res.Rules, 4)
	assert.Empty(t, res.Dropped)
}

func TestDedup_PrefixOnly(t *testing.T) {
	prefix := strings.Repeat("x", PrefixRunes)
	rules := []types.Rule{
		rule("a", "All", "FSI", prefix+" first tail"),
		rule("b", "All", "FSI", prefix+" second tail"),
	}
	res := Dedup(rules)
	require.Len(t, res.Rules, 1)
	assert.Equal(t, "a", res.Rules[0].Reference)
}

func TestDedup_NormalizationAndOrder(t *testing.T) {
	rules := []types.Rule{
		rule("first", "All", "FSI", "Basic  FSI\nshall be 1.5"),
		rule("other", "All", "TDR", "TDR may be utilised"),
		rule("dup", "All", "FSI", "basic fsi shall be 1.5"),
		rule("wide", "All", "FSI", "Ｂａｓｉｃ FSI shall be 1.5"),
	}
	res := Dedup(rules)

	var refs []string
	for _, r := range res.Rules {
		refs = append(refs, r.Reference)
	}
	assert.Equal(t, []string{"first", "other"}, refs)
}

func TestDedup_Idempotent(t *testing.T) {
	rules := []types.Rule{
		rule("a", "All", "FSI", "Basic FSI shall be 1.5"),
		rule("b", "All", "FSI", "Basic FSI shall be 1.5"),
		rule("c", "Mumbai City", "Parking", "Parking for cars"),
		rule("d", "Mumbai City", "Parking", "PARKING   for cars"),
		rule("e", "All", "", "Unlabelled text"),
	}
	once := Dedup(rules).Rules
	twice := Dedup(once)
	assert.Equal(t, once, twice.Rules)
	assert.Empty(t, twice.Dropped)
}

func TestDedup_Empty(t *testing.T) {
	res := Dedup(nil)
	assert.Empty(t, res.Rules)
	assert.Empty(t, res.Dropped)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "abc def", Normalize("  ABC\t\tdef ", 0))
	assert.Equal(t, "ab", Normalize("ABC", 2))
	assert.Equal(t, "fi", Normalize("ﬁ", 0))
}
