package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dcpr/internal/api"
	"github.com/jackzampolin/dcpr/internal/llmcall"
	"github.com/jackzampolin/dcpr/internal/store"
	"github.com/jackzampolin/dcpr/internal/svcctx"
	"github.com/jackzampolin/dcpr/internal/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect and curate the stored rule corpus",
}

var (
	listChapter   string
	listCategory  string
	listDistrict  string
	listStrategy  string
	listVerified  string
	listLimit     int
	verifyNotes   string
	verifyUnset   bool
	callsRunID    string
	callsProvider string
	callsFailed   bool
	callsLimit    int
	runsLimit     int
)

// ruleTable renders rules in table output.
type ruleTable []types.Rule

func (t ruleTable) Header() []string {
	return []string{"REFERENCE", "CATEGORY", "DISTRICTS", "PAGE", "VERIFIED", "EVIDENCE", "SUMMARY"}
}

func (t ruleTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		page := "-"
		if r.PdfPage != nil {
			page = strconv.Itoa(*r.PdfPage)
		}
		verified := "-"
		if r.Verified != nil {
			verified = strconv.FormatBool(*r.Verified)
		}
		evidence := "-"
		if r.Origin != nil && len(r.Origin.Evidence) > 0 {
			evidence = strings.Join(r.Origin.Evidence, ",")
		}
		rows = append(rows, []string{
			r.Reference,
			r.CategoryName(),
			strings.Join(r.ApplicableDistricts, ","),
			page,
			verified,
			evidence,
			types.Preview(r.Summary, 60),
		})
	}
	return rows
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	Long: `List stored rules ordered by chapter.

Examples:
  dcpr corpus list --category Parking
  dcpr corpus list --district "Mumbai City" --verified=false -o table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := svcctx.StoreFrom(ctx)
		if err != nil {
			return err
		}

		f := store.Filter{
			Chapter:  listChapter,
			Category: listCategory,
			District: listDistrict,
			Strategy: listStrategy,
			Limit:    listLimit,
		}
		if listVerified != "" {
			v, err := strconv.ParseBool(listVerified)
			if err != nil {
				return withExitCode(exitUsage, fmt.Errorf("--verified: %w", err))
			}
			f.Verified = &v
		}

		rules, err := st.ListRules(ctx, f)
		if err != nil {
			return err
		}
		return api.Output(ruleTable(rules))
	},
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus counts by chapter, category and strategy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := svcctx.StoreFrom(ctx)
		if err != nil {
			return err
		}
		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		return api.Output(stats)
	},
}

var corpusVerifyCmd = &cobra.Command{
	Use:   "verify <reference>",
	Short: "Mark a stored rule as verified against the source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := svcctx.StoreFrom(ctx)
		if err != nil {
			return err
		}
		if err := st.SetVerified(ctx, args[0], !verifyUnset, verifyNotes); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return withExitCode(exitFailure, err)
			}
			return err
		}
		svcctx.LoggerFrom(ctx).Info("rule updated", "reference", args[0], "verified", !verifyUnset)
		return nil
	},
}

var corpusRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved extraction runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := svcctx.StoreFrom(ctx)
		if err != nil {
			return err
		}
		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		return api.Output(runs)
	},
}

var corpusCallsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Summarize recorded LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := svcctx.StoreFrom(ctx)
		if err != nil {
			return err
		}
		f := store.CallFilter{
			RunID:    callsRunID,
			Provider: callsProvider,
			Limit:    callsLimit,
		}
		if callsFailed {
			failed := false
			f.Success = &failed
		}
		calls, err := st.ListCalls(ctx, f)
		if err != nil {
			return err
		}
		return api.Output(struct {
			Summary *llmcall.Summary `json:"summary" yaml:"summary"`
			Calls   []*llmcall.Call  `json:"calls" yaml:"calls"`
		}{llmcall.Summarize(calls), calls})
	},
}

func init() {
	corpusListCmd.Flags().StringVar(&listChapter, "chapter", "", "filter by chapter number")
	corpusListCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	corpusListCmd.Flags().StringVar(&listDistrict, "district", "", "filter by applicable district")
	corpusListCmd.Flags().StringVar(&listStrategy, "strategy", "", "filter by producing strategy")
	corpusListCmd.Flags().StringVar(&listVerified, "verified", "", "filter by verification state (true or false)")
	corpusListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum rules to list")

	corpusVerifyCmd.Flags().StringVar(&verifyNotes, "notes", "", "curation notes")
	corpusVerifyCmd.Flags().BoolVar(&verifyUnset, "unset", false, "mark as not verified")

	corpusRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")

	corpusCallsCmd.Flags().StringVar(&callsRunID, "run", "", "filter by run ID")
	corpusCallsCmd.Flags().StringVar(&callsProvider, "provider", "", "filter by provider")
	corpusCallsCmd.Flags().BoolVar(&callsFailed, "failed", false, "only failed calls")
	corpusCallsCmd.Flags().IntVar(&callsLimit, "limit", 0, "maximum calls to list")

	corpusCmd.AddCommand(corpusListCmd, corpusStatsCmd, corpusVerifyCmd, corpusRunsCmd, corpusCallsCmd)
	rootCmd.AddCommand(corpusCmd)
}
