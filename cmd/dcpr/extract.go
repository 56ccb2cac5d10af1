package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/dcpr/internal/api"
	"github.com/jackzampolin/dcpr/internal/config"
	"github.com/jackzampolin/dcpr/internal/extract"
	"github.com/jackzampolin/dcpr/internal/ingest"
	"github.com/jackzampolin/dcpr/internal/llmcall"
	"github.com/jackzampolin/dcpr/internal/llmextract"
	"github.com/jackzampolin/dcpr/internal/pipeline"
	"github.com/jackzampolin/dcpr/internal/prompts"
	"github.com/jackzampolin/dcpr/internal/providers"
	"github.com/jackzampolin/dcpr/internal/store"
	"github.com/jackzampolin/dcpr/internal/svcctx"
	"github.com/jackzampolin/dcpr/internal/validate"
)

var (
	extractPDF         string
	extractPages       int
	extractName        string
	extractStrategies  []string
	extractProvider    string
	extractOut         string
	extractMetricsFile string
	extractSave        bool
	extractAudit       bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <text-file>...",
	Short: "Extract rule records from a converted regulation text",
	Long: `Run one or more extraction strategies over the document text, then
deduplicate, make references unique and validate the result.

Strategies:
  regex    chapter and clause segmentation (default)
  keyword  fixed-size windows tagged by the pattern library
  llm      chunked structured extraction through an LLM provider

Multi-part text files (name-1.txt, name-2.txt, ...) are joined in part
order. Page numbers come from --pdf, form-feed page breaks in the text, or
a linear estimate from --pages.

Examples:
  dcpr extract dcpr-2034.txt --pdf dcpr-2034.pdf --out rules.json
  dcpr extract part-*.txt --strategy regex,llm --provider openrouter --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractPDF, "pdf", "", "source PDF used for the page count")
	extractCmd.Flags().IntVar(&extractPages, "pages", 0, "page count when no PDF or page breaks are available")
	extractCmd.Flags().StringVar(&extractName, "name", "", "document name (default: derived from the first file)")
	extractCmd.Flags().StringSliceVarP(&extractStrategies, "strategy", "s", nil, "strategies to run (default from config)")
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "LLM provider for the llm strategy (default from config)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "write the ready rules to this JSON file")
	extractCmd.Flags().StringVar(&extractMetricsFile, "metrics-file", "", "write a Prometheus textfile snapshot here")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "save the run and ready rules to the corpus store")
	extractCmd.Flags().BoolVar(&extractAudit, "audit", false, "include noise audit entries in the report")

	rootCmd.AddCommand(extractCmd)
}

// extractSummary is the report printed by extract.
type extractSummary struct {
	RunID      string                   `json:"run_id" yaml:"run_id"`
	Document   string                   `json:"document" yaml:"document"`
	Strategies []string                 `json:"strategies" yaml:"strategies"`
	Duration   string                   `json:"duration" yaml:"duration"`
	Stats      pipeline.Stats           `json:"stats" yaml:"stats"`
	Verdict    string                   `json:"verdict" yaml:"verdict"`
	Errors     int                      `json:"errors" yaml:"errors"`
	Warnings   int                      `json:"warnings" yaml:"warnings"`
	Comparison *pipeline.Comparison     `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Chunks     []llmextract.ChunkResult `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Calls      *llmcall.Summary         `json:"llm_calls,omitempty" yaml:"llm_calls,omitempty"`
	Audit      []pipeline.AuditEntry    `json:"audit,omitempty" yaml:"audit,omitempty"`
	Out        string                   `json:"out,omitempty" yaml:"out,omitempty"`
	Saved      int                      `json:"saved,omitempty" yaml:"saved,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	services := svcctx.ServicesFrom(ctx)
	logger := svcctx.LoggerFrom(ctx)
	cfg := svcctx.ConfigFrom(ctx)

	names := extractStrategies
	if len(names) == 0 {
		names = cfg.Defaults.Strategies
	}

	doc, err := ingest.Load(ctx, ingest.Request{
		TextPaths: args,
		PDFPath:   extractPDF,
		PageCount: extractPages,
		Name:      extractName,
		Logger:    logger,
	})
	if err != nil {
		return withExitCode(exitUsage, err)
	}

	runID := uuid.New().String()

	var st *store.Store
	if extractSave {
		if st, err = services.Store(); err != nil {
			return withExitCode(exitUsage, err)
		}
	}

	var recorder *llmcall.Recorder
	registry := pipeline.NewRegistry()
	extractOpts := extract.Options{
		MinSummaryLen: cfg.Extraction.MinSummaryLen,
		SummaryMaxLen: cfg.Extraction.SummaryMaxLen,
	}
	if err := registry.Register(pipeline.NewRegexStrategy(services.Patterns, pipeline.RegexOptions{
		ContextWindow: cfg.Extraction.ContextWindow,
		Extract:       extractOpts,
	}, logger)); err != nil {
		return err
	}
	if err := registry.Register(pipeline.NewKeywordStrategy(services.Patterns, pipeline.KeywordOptions{
		WindowSize:    cfg.Extraction.WindowSize,
		ContextWindow: cfg.Extraction.ContextWindow,
		Extract:       extractOpts,
	}, logger)); err != nil {
		return err
	}
	if slices.Contains(names, llmextract.StrategyName) {
		var sink llmcall.Sink
		if st != nil {
			sink = st
		}
		recorder = llmcall.NewRecorder(runID, sink, services.Metrics, logger)
		strategy, err := newLLMStrategy(ctx, services, cfg, recorder)
		if err != nil {
			return withExitCode(exitUsage, err)
		}
		if err := registry.Register(strategy); err != nil {
			return err
		}
	}

	v, err := validate.New(services.Patterns, validate.Options{
		MetadataWarnings: cfg.Validation.MetadataWarnings,
	})
	if err != nil {
		return err
	}
	p := pipeline.New(registry, v, logger)
	p.SetMetrics(services.Metrics)

	report, err := p.RunWithID(ctx, runID, doc, names...)
	if err != nil {
		return err
	}

	summary := extractSummary{
		RunID:      report.RunID,
		Document:   report.Document,
		Strategies: report.Strategies,
		Duration:   report.Duration.Round(time.Millisecond).String(),
		Stats:      report.Stats,
		Verdict:    report.Validation.Verdict,
		Errors:     report.Validation.Errors,
		Warnings:   report.Validation.Warnings,
		Comparison: report.Comparison,
		Chunks:     report.Chunks,
	}
	if recorder != nil {
		summary.Calls = llmcall.Summarize(recorder.Calls())
	}
	if extractAudit {
		summary.Audit = report.Audit
	}

	if extractOut != "" {
		if err := writeRules(extractOut, report.Ready); err != nil {
			return err
		}
		summary.Out = extractOut
	}

	if st != nil {
		saved, err := saveRun(ctx, st, report)
		if err != nil {
			return err
		}
		summary.Saved = saved
	}

	if extractMetricsFile != "" {
		if err := services.Metrics.WriteTextfile(extractMetricsFile); err != nil {
			logger.Warn("failed to write metrics file", "path", extractMetricsFile, "error", err)
		}
	}

	return api.Output(summary)
}

// newLLMStrategy wires the llm strategy to the configured provider, gate,
// prompt overrides and call recorder.
func newLLMStrategy(ctx context.Context, services *svcctx.Services, cfg *config.Config, recorder *llmcall.Recorder) (*pipeline.LLMStrategy, error) {
	providerName := extractProvider
	if providerName == "" {
		providerName = cfg.Defaults.LLMProvider
	}
	client, err := services.Registry.GetLLM(providerName)
	if err != nil {
		return nil, fmt.Errorf("llm strategy: %w (enabled: %s)", err,
			strings.Join(services.Registry.ListLLM(), ", "))
	}
	model := ""
	if pc, ok := cfg.GetLLMProvider(providerName); ok {
		model = pc.Model
	}

	gate := newGate(ctx, services, cfg.Extraction, services.Logger)

	s := llmextract.New(client, gate, services.Patterns, llmextract.Options{
		ChunkSize: cfg.Extraction.ChunkSize,
		Model:     model,
	})
	s.SetLogger(services.Logger)
	s.SetRecorder(recorder)

	overrides := cfg.Prompts.OverridesDir
	if overrides == "" {
		overrides = services.Home.PromptsDir()
	}
	s.SetResolver(prompts.NewResolver(overrides, services.Logger))

	return pipeline.NewLLMStrategy(s), nil
}

// newGate returns the adaptive gate when a request budget is configured,
// otherwise a fixed pause between chunks. The adaptive budget follows
// config file edits for the rest of the run.
func newGate(ctx context.Context, services *svcctx.Services, ext config.ExtractionCfg, logger *slog.Logger) providers.Gate {
	if ext.RequestsPerMinute <= 0 {
		return providers.NewFixedIntervalGate(ext.ChunkDelay())
	}

	gate := providers.NewAdaptiveGate(ext.RequestsPerMinute, ext.ChunkDelay(), 0)
	if services.Config != nil && services.Config.ConfigFile() != "" {
		services.Config.OnChange(func(c *config.Config) {
			if ctx.Err() != nil {
				return
			}
			if rpm := c.Extraction.RequestsPerMinute; rpm > 0 && rpm != gate.RequestsPerMinute() {
				logger.Info("request budget changed", "requests_per_minute", rpm)
				gate.SetRequestsPerMinute(rpm)
			}
		})
		services.Config.WatchConfig()
	}
	return gate
}

// saveRun persists the run before its rules; rules reference the run.
func saveRun(ctx context.Context, st *store.Store, report *pipeline.Report) (int, error) {
	stats, err := json.Marshal(report.Stats)
	if err != nil {
		return 0, fmt.Errorf("marshalling stats: %w", err)
	}
	if err := st.SaveRun(ctx, store.Run{
		ID:         report.RunID,
		Document:   report.Document,
		Strategies: report.Strategies,
		StartedAt:  report.StartedAt,
		Duration:   report.Duration,
		Rules:      len(report.Rules),
		Ready:      len(report.Ready),
		Verdict:    report.Validation.Verdict,
		Stats:      stats,
	}); err != nil {
		return 0, err
	}
	return st.SaveRules(ctx, report.RunID, report.Ready)
}
