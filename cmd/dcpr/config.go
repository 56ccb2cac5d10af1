package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dcpr/internal/api"
	"github.com/jackzampolin/dcpr/internal/config"
	"github.com/jackzampolin/dcpr/internal/svcctx"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dcpr configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h := svcctx.HomeFrom(cmd.Context())
		if err := h.EnsureExists(); err != nil {
			return err
		}

		path := h.ConfigPath()
		if h.ConfigExists() && !configForce {
			return withExitCode(exitUsage, fmt.Errorf("config already exists at %s (use --force to overwrite)", path))
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

// entryTable renders config entries in table output.
type entryTable []config.Entry

func (t entryTable) Header() []string { return []string{"KEY", "VALUE", "DESCRIPTION"} }

func (t entryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{e.Key, fmt.Sprint(e.Value), e.Description})
	}
	return rows
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(entryTable(svcctx.ConfigFrom(cmd.Context()).Entries()))
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of one config key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := svcctx.ServicesFrom(cmd.Context())
		v, err := s.Config.Lookup(args[0])
		if err != nil {
			return withExitCode(exitUsage, err)
		}
		return api.Output(map[string]any{args[0]: v})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd)
	rootCmd.AddCommand(configCmd)
}
