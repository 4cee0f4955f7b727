// Package cli implements the janus command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Budget-aware model routing, council deliberation, and sandboxed execution",
	Long: `janus routes tasks to the cheapest capable model under a monthly
budget, runs multi-advisor council deliberations, learns model tiers from
peer ratings, and executes constrained plans in a sandboxed repo.

State lives in a context store directory (default .janus). Provider API
keys come from the config file or from ANTHROPIC_API_KEY, OPENAI_API_KEY,
GEMINI_API_KEY, and GROQ_API_KEY.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "janus.toml", "path to config file (.toml, .yaml, .yml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(councilCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		return err
	}
	return nil
}
