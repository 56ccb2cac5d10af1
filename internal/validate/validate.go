// Package validate checks rule records against the corpus schema.
//
// Errors block a record from the ready set; warnings are reported but never
// change the verdict.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/types"
)

// Options controls the optional checks.
type Options struct {
	// MetadataWarnings warns about missing pdfPage and verified fields.
	MetadataWarnings bool
}

// Result is the verdict for one record.
type Result struct {
	Index     int      `json:"index"`
	Reference string   `json:"reference,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Passed reports whether the record has no errors.
func (r Result) Passed() bool {
	return len(r.Errors) == 0
}

// Report aggregates results over a batch.
type Report struct {
	Records  int      `json:"records"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Errors   int      `json:"errors"`
	Warnings int      `json:"warnings"`
	Verdict  string   `json:"verdict"`
	Results  []Result `json:"results"`
}

// OK reports whether every record passed.
func (r *Report) OK() bool {
	return r.Errors == 0
}

const (
	VerdictPass = "pass"
	VerdictFail = "fail"
)

// Validator validates rules against a pattern library's enumerations.
type Validator struct {
	v    *validator.Validate
	lib  *patterns.Library
	opts Options
}

// New builds a validator bound to lib.
func New(lib *patterns.Library, opts Options) (*Validator, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("dcpr_chapter", func(fl validator.FieldLevel) bool {
		return lib.IsChapter(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register chapter validation: %w", err)
	}
	return &Validator{v: v, lib: lib, opts: opts}, nil
}

// Validate checks one record.
func (val *Validator) Validate(r *types.Rule) Result {
	res := Result{Reference: r.Reference}

	if err := val.v.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			res.Errors = append(res.Errors, err.Error())
		}
		for _, fe := range fieldErrs {
			res.Errors = append(res.Errors, val.describe(fe))
		}
	}

	switch {
	case r.Category == nil || strings.TrimSpace(*r.Category) == "":
		res.Warnings = append(res.Warnings, "missing category")
	case !val.lib.IsCategory(*r.Category):
		res.Warnings = append(res.Warnings, fmt.Sprintf("unknown category %q", *r.Category))
	}

	if val.opts.MetadataWarnings {
		if r.PdfPage == nil {
			res.Warnings = append(res.Warnings, "missing pdfPage")
		}
		if r.Verified == nil {
			res.Warnings = append(res.Warnings, "missing verified")
		}
	}
	return res
}

func (val *Validator) describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing " + fe.Field()
	case "dcpr_chapter":
		lo, hi := val.lib.ChapterRange()
		return fmt.Sprintf("chapter %q not in enumeration %d..%d", fe.Value(), lo, hi)
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// ValidateAll checks every record. The batch passes iff every record does.
func (val *Validator) ValidateAll(rules []types.Rule) *Report {
	rep := &Report{Records: len(rules), Results: make([]Result, 0, len(rules))}
	for i := range rules {
		res := val.Validate(&rules[i])
		res.Index = i
		rep.Errors += len(res.Errors)
		rep.Warnings += len(res.Warnings)
		if res.Passed() {
			rep.Passed++
		} else {
			rep.Failed++
		}
		rep.Results = append(rep.Results, res)
	}
	rep.Verdict = VerdictPass
	if !rep.OK() {
		rep.Verdict = VerdictFail
	}
	return rep
}

// Ready returns the records that passed, in order.
func (rep *Report) Ready(rules []types.Rule) []types.Rule {
	out := make([]types.Rule, 0, rep.Passed)
	for _, res := range rep.Results {
		if res.Passed() && res.Index < len(rules) {
			out = append(out, rules[res.Index])
		}
	}
	return out
}
