package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dcpr/internal/api"
	"github.com/jackzampolin/dcpr/internal/config"
	"github.com/jackzampolin/dcpr/internal/home"
	"github.com/jackzampolin/dcpr/internal/metrics"
	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/providers"
	"github.com/jackzampolin/dcpr/internal/svcctx"
	"github.com/jackzampolin/dcpr/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "dcpr",
	Short: "Building-code rule extraction pipeline",
	Long: `dcpr turns the plain text of a building-code regulation into a validated
corpus of addressable rule records.

The pipeline includes:
  - Chapter and clause segmentation with noise classification
  - Category, zone and jurisdiction tagging from a pattern library
  - Chunked, rate-limited LLM extraction into the same record schema
  - Deduplication, schema validation and a SQLite corpus store`,
	Version:           version.GitRelease,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupServices,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if s := svcctx.ServicesFrom(cmd.Context()); s != nil {
			return s.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.dcpr/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "dcpr home directory (default: ~/.dcpr)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or table",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.AddCommand(versionCmd)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// setupServices builds the shared services and attaches them to the
// command context.
func setupServices(cmd *cobra.Command, args []string) error {
	if _, err := api.ParseOutputFormat(outputFormat); err != nil {
		return withExitCode(exitUsage, err)
	}
	api.SetOutputFormat(outputFormat)

	level, err := parseLevel(logLevel)
	if err != nil {
		return withExitCode(exitUsage, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	h, err := home.New(homeDir)
	if err != nil {
		return withExitCode(exitUsage, err)
	}

	searchDir := homeDir
	if searchDir == "" {
		searchDir = h.Path()
	}
	mgr, err := config.NewManager(cfgFile, searchDir)
	if err != nil {
		return withExitCode(exitUsage, err)
	}
	cfg := mgr.Get()
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("loaded config", "file", f)
	}

	lib, err := loadPatterns(cfg.Patterns.File)
	if err != nil {
		return withExitCode(exitUsage, err)
	}

	services := &svcctx.Services{
		Config:   mgr,
		Home:     h,
		Logger:   logger,
		Registry: providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig(), logger),
		Patterns: lib,
		Metrics:  metrics.New(),
	}
	cmd.SetContext(svcctx.WithServices(cmd.Context(), services))
	return nil
}

func loadPatterns(path string) (*patterns.Library, error) {
	if path == "" {
		return patterns.Default()
	}
	lib, err := patterns.Load(path)
	if err != nil {
		return nil, fmt.Errorf("pattern library %s: %w", path, err)
	}
	return lib, nil
}
