package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/types"
)

func newTestValidator(t *testing.T, opts Options) *Validator {
	t.Helper()
	lib, err := patterns.Default()
	require.NoError(t, err)
	v, err := New(lib, opts)
	require.NoError(t, err)
	return v
}

func scenarioRule() types.Rule {
	return types.Rule{
		Chapter:  "3",
		Section:  "2",
		Clause:   "3.2.1",
		Summary:  "Basic FSI",
		FullText: "...",
	}
}

func TestValidate_MissingCategoryIsOneWarning(t *testing.T) {
	v := newTestValidator(t, Options{})
	r := scenarioRule()

	res := v.Validate(&r)
	assert.True(t, res.Passed())
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"missing category"}, res.Warnings)
}

func TestValidate_MissingChapterFailsBatch(t *testing.T) {
	v := newTestValidator(t, Options{})
	r := scenarioRule()
	r.Chapter = ""

	res := v.Validate(&r)
	assert.False(t, res.Passed())
	assert.Contains(t, res.Errors, "missing chapter")

	rep := v.ValidateAll([]types.Rule{scenarioRule(), r})
	assert.False(t, rep.OK())
	assert.Equal(t, VerdictFail, rep.Verdict)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 1, rep.Failed)
}

func TestValidate_RequiredFieldsNamed(t *testing.T) {
	v := newTestValidator(t, Options{})
	res := v.Validate(&types.Rule{})
	assert.Equal(t, []string{
		"missing chapter",
		"missing section",
		"missing clause",
		"missing summary",
		"missing fullText",
	}, res.Errors)
}

func TestValidate_Enumerations(t *testing.T) {
	v := newTestValidator(t, Options{})

	tests := []struct {
		name     string
		mutate   func(*types.Rule)
		errors   int
		warnings []string
	}{
		{"chapter out of range", func(r *types.Rule) { r.Chapter = "16" }, 1, []string{"missing category"}},
		{"chapter not canonical", func(r *types.Rule) { r.Chapter = "03" }, 1, []string{"missing category"}},
		{"known category", func(r *types.Rule) { r.Category = types.StringPtr("FSI") }, 0, nil},
		{"general category", func(r *types.Rule) { r.Category = types.StringPtr("General") }, 0, nil},
		{"unknown category", func(r *types.Rule) { r.Category = types.StringPtr("Signage") }, 0, []string{`unknown category "Signage"`}},
		{"page below one", func(r *types.Rule) {
			r.Category = types.StringPtr("FSI")
			r.PdfPage = types.IntPtr(0)
		}, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := scenarioRule()
			tt.mutate(&r)
			res := v.Validate(&r)
			assert.Len(t, res.Errors, tt.errors)
			assert.Equal(t, tt.warnings, res.Warnings)
		})
	}
}

func TestValidate_MetadataWarnings(t *testing.T) {
	v := newTestValidator(t, Options{MetadataWarnings: true})
	r := scenarioRule()
	r.Category = types.StringPtr("FSI")

	res := v.Validate(&r)
	assert.True(t, res.Passed())
	assert.Equal(t, []string{"missing pdfPage", "missing verified"}, res.Warnings)

	r.PdfPage = types.IntPtr(4)
	r.Verified = types.BoolPtr(false)
	assert.Empty(t, v.Validate(&r).Warnings)
}

func TestValidateAll_Monotonic(t *testing.T) {
	v := newTestValidator(t, Options{MetadataWarnings: true})
	batch := []types.Rule{scenarioRule(), scenarioRule()}

	rep := v.ValidateAll(batch)
	require.True(t, rep.OK())

	warnOnly := scenarioRule()
	warnOnly.Category = types.StringPtr("Signage")
	withWarning := v.ValidateAll(append(append([]types.Rule{}, batch...), warnOnly))
	assert.True(t, withWarning.OK())
	assert.Greater(t, withWarning.Warnings, rep.Warnings)

	broken := scenarioRule()
	broken.FullText = ""
	withError := v.ValidateAll(append(append([]types.Rule{}, batch...), broken))
	assert.False(t, withError.OK())
}

func TestReport_Ready(t *testing.T) {
	v := newTestValidator(t, Options{})
	bad := scenarioRule()
	bad.Clause = ""
	rules := []types.Rule{scenarioRule(), bad, scenarioRule()}
	rules[2].Reference = "3/3.2.1#2"

	rep := v.ValidateAll(rules)
	ready := rep.Ready(rules)
	require.Len(t, ready, 2)
	assert.Equal(t, "3/3.2.1#2", ready[1].Reference)
}

func TestDecode(t *testing.T) {
	rules, err := Decode([]byte(`[{"chapter":"3","clause":"3.2.1"}]`))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "3.2.1", rules[0].Clause)

	rules, err = Decode([]byte(`{"rules":[{"chapter":"1"},{"chapter":"2"}]}`))
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	rules, err = Decode([]byte(`{"chapter":"3","section":"2","clause":"3.2.1","summary":"Basic FSI","fullText":"..."}`))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Nil(t, rules[0].Category)

	_, err = Decode([]byte("  "))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"chapter":`))
	assert.Error(t, err)
}
