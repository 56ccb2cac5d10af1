package categorize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/types"
)

func newTestCategorizer(t *testing.T) *Categorizer {
	t.Helper()
	lib, err := patterns.Default()
	require.NoError(t, err)
	return New(lib)
}

func TestCategorize_FSIScenario(t *testing.T) {
	c := newTestCategorizer(t)
	m := c.Categorize(Window{Text: "3.2.1 Basic FSI shall be 1.5 for Residential zones"})

	assert.Equal(t, "FSI", m.Category)
	assert.Contains(t, m.Evidence, "FSI")
	assert.Equal(t, "3.2.1", m.Clause)
	assert.Equal(t, []string{types.DistrictAll}, m.Districts)
	assert.False(t, m.MumbaiSpecific)
}

func TestCategorize_FirstCategoryWins(t *testing.T) {
	c := newTestCategorizer(t)
	// Heritage precedes Environmental in the library.
	m := c.Categorize(Window{Text: "Heritage precincts shall follow environmental guidelines for mangroves."})
	assert.Equal(t, "Heritage", m.Category)
	assert.Equal(t, []string{"Heritage", "precincts"}, m.Evidence)
}

func TestCategorize_EvidenceCappedAndDeduplicated(t *testing.T) {
	c := newTestCategorizer(t)
	m := c.Categorize(Window{Text: "FSI, fsi, floor space index, F.S.I. and built-up area"})
	assert.Equal(t, "FSI", m.Category)
	assert.Len(t, m.Evidence, MaxEvidence)
	assert.Equal(t, "FSI", m.Evidence[0])
}

func TestCategorize_General(t *testing.T) {
	c := newTestCategorizer(t)
	m := c.Categorize(Window{Text: "The Commissioner may issue directions."})
	assert.Equal(t, types.CategoryGeneral, m.Category)
	assert.Empty(t, m.Evidence)
	assert.Equal(t, "", m.Clause)
}

func TestCategorize_Deterministic(t *testing.T) {
	c := newTestCategorizer(t)
	w := Window{Text: "Parking for two wheelers in R2 and C1 zones of Greater Mumbai."}
	first := c.Categorize(w)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Categorize(w))
	}
}

func TestCategorize_JurisdictionAndZones(t *testing.T) {
	c := newTestCategorizer(t)
	m := c.Categorize(Window{Text: "Parking for two wheelers in R2 and C1 zones of Greater Mumbai, also R2."})

	assert.Equal(t, "Parking", m.Category)
	assert.Equal(t, "Greater Mumbai", m.DistrictSet)
	assert.Equal(t, []string{"Mumbai City", "Mumbai Suburban"}, m.Districts)
	assert.True(t, m.MumbaiSpecific)
	assert.Equal(t, []string{"R2", "C1"}, m.Zones)
}

func TestCategorize_ClauseRecoveryFromContext(t *testing.T) {
	c := newTestCategorizer(t)

	m := c.Categorize(Window{
		Before: "6.1 General. Text. 6.4 Parking Standards. The",
		Text:   "parking spaces shall be provided for every tenement",
	})
	assert.Equal(t, "6.4", m.Clause, "nearest preceding clause wins")

	m = c.Categorize(Window{Text: "parking spaces shall be provided", After: " 7.1 Loading bays"})
	assert.Equal(t, "7.1", m.Clause)
}

func TestWindowAt(t *testing.T) {
	text := "ééé middle ààà"
	start := strings.Index(text, "middle")
	w := WindowAt(text, types.Span{Start: start, End: start + len("middle")}, 3)

	assert.Equal(t, "middle", w.Text)
	assert.True(t, strings.HasSuffix(w.Before, " "))
	assert.LessOrEqual(t, len(w.Before), 3)
	assert.True(t, strings.HasPrefix(w.After, " "))
}

func TestTagger_Placeholders(t *testing.T) {
	c := newTestCategorizer(t)
	tagger := c.NewTagger()

	m, placeholder := tagger.Tag(Window{Text: "parking spaces shall be provided"})
	assert.True(t, placeholder)
	assert.Equal(t, "Parking-1", m.Clause)

	m, _ = tagger.Tag(Window{Text: "more parking is required"})
	assert.Equal(t, "Parking-2", m.Clause)

	m, _ = tagger.Tag(Window{Text: "the commissioner may decide"})
	assert.Equal(t, "General-1", m.Clause)

	m, placeholder = tagger.Tag(Window{Text: "5.2 Parking shall be provided"})
	assert.False(t, placeholder)
	assert.Equal(t, "5.2", m.Clause)

	fresh := c.NewTagger()
	m, _ = fresh.Tag(Window{Text: "parking again"})
	assert.Equal(t, "Parking-1", m.Clause, "numbering restarts per session")
}

func TestExpand(t *testing.T) {
	c := newTestCategorizer(t)
	m := c.Categorize(Window{Text: "6.4 Parking in the island city and Mumbai"})
	require.Equal(t, "Island City", m.DistrictSet)

	base := types.Rule{Chapter: "6", Clause: "6.4", Reference: "6/6.4", FullText: "6.4 Parking"}
	Apply(&base, m)
	rules := Expand(base, m)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"Mumbai City"}, rules[0].ApplicableDistricts)
	assert.Equal(t, "6/6.4", rules[0].Reference)

	m = c.Categorize(Window{Text: "6.5 Parking across Greater Mumbai"})
	Apply(&base, m)
	rules = Expand(base, m)
	require.Len(t, rules, 2)
	assert.Equal(t, "6/6.4@mumbai-city", rules[0].Reference)
	assert.Equal(t, "6/6.4@mumbai-suburban", rules[1].Reference)
	assert.Equal(t, rules[0].FullText, rules[1].FullText)
	assert.Equal(t, "Parking", rules[1].CategoryName())
	assert.True(t, rules[1].IsMumbaiSpecific)
	assert.Equal(t, rules[0].Origin.Evidence, rules[1].Origin.Evidence)
}
