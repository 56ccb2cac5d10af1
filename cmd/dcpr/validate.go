package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dcpr/internal/api"
	"github.com/jackzampolin/dcpr/internal/svcctx"
	"github.com/jackzampolin/dcpr/internal/validate"
)

var (
	validateNoMetadata bool
	validateSummary    bool
)

// errValidationFailed marks a completed validation with failing records.
var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <rules.json>",
	Short: "Validate a rules file against the corpus schema",
	Long: `Validate every record in a rules file and print the report.

The file holds a JSON array of rules, a single rule, or an object with a
"rules" array. The output of "dcpr extract --out" validates as is.

Exit status is 0 when every record passes, 1 when any record has an error
and 2 when the file is missing or unreadable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := svcctx.LoggerFrom(ctx)
		cfg := svcctx.ConfigFrom(ctx)

		rules, err := readRules(args[0])
		if err != nil {
			return withExitCode(exitUsage, err)
		}

		v, err := validate.New(svcctx.PatternsFrom(ctx), validate.Options{
			MetadataWarnings: cfg.Validation.MetadataWarnings && !validateNoMetadata,
		})
		if err != nil {
			return withExitCode(exitUsage, err)
		}

		report := v.ValidateAll(rules)
		logger.Info("validation complete",
			"file", args[0],
			"records", report.Records,
			"passed", report.Passed,
			"errors", report.Errors,
			"warnings", report.Warnings)

		var out any = report
		if validateSummary {
			summary := *report
			summary.Results = nil
			out = summary
		}
		if err := api.Output(out); err != nil {
			return err
		}

		if !report.OK() {
			return withExitCode(exitFailure, fmt.Errorf("%w: %d of %d records failed",
				errValidationFailed, report.Failed, report.Records))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateNoMetadata, "no-metadata-warnings", false, "skip pdfPage/verified warnings")
	validateCmd.Flags().BoolVar(&validateSummary, "summary", false, "print only the aggregate counts")

	rootCmd.AddCommand(validateCmd)
}
