package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/dcpr/internal/api"
	"github.com/jackzampolin/dcpr/internal/prompts"
	"github.com/jackzampolin/dcpr/internal/prompts/extract_rules"
	"github.com/jackzampolin/dcpr/internal/svcctx"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect LLM prompts and their overrides",
}

// promptTable renders resolved prompts in table output.
type promptTable []*prompts.ResolvedPrompt

func (t promptTable) Header() []string { return []string{"KEY", "HASH", "OVERRIDE", "SOURCE"} }

func (t promptTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		override, source := "no", "embedded"
		if p.IsOverride {
			override, source = "yes", p.Source
		}
		hash := p.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows = append(rows, []string{p.Key, hash, override, source})
	}
	return rows
}

func newResolver(cmd *cobra.Command) *prompts.Resolver {
	ctx := cmd.Context()
	dir := svcctx.ConfigFrom(ctx).Prompts.OverridesDir
	if dir == "" {
		dir = svcctx.HomeFrom(ctx).PromptsDir()
	}
	r := prompts.NewResolver(dir, svcctx.LoggerFrom(ctx))
	extract_rules.Register(r)
	return r
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts with their effective hash and source",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newResolver(cmd)
		var out promptTable
		for _, e := range r.AllEmbedded() {
			p, err := r.Resolve(e.Key)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return api.Output(out)
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show the effective text of one prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newResolver(cmd).Resolve(args[0])
		if err != nil {
			return withExitCode(exitUsage, err)
		}
		return api.Output(p)
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd, promptsShowCmd)
	rootCmd.AddCommand(promptsCmd)
}
