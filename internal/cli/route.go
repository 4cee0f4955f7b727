package cli

import (
	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/router"
)

var routeCmd = &cobra.Command{
	Use:   "route <task>",
	Short: "Pick a model for a task and print the routing decision",
	Long: `Route a task description through the model selector and print the
chosen model, its estimated cost, ordered fallbacks, and the notes
explaining which filters were skipped.

Examples:
  janus route "summarize this changelog"
  janus route --category planning "design the migration"
  janus route --max-cost 0.02 --min-quality balanced "draft release notes"`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().String("category", "general", "task category: general, planning, council, model-rating, execution, synthesis")
	routeCmd.Flags().String("prefer", "", "preferred model key, e.g. anthropic/claude-opus")
	routeCmd.Flags().String("min-quality", "", "minimum quality tier: fast, balanced, quality")
	routeCmd.Flags().Float64("max-cost", 0, "per-task cost ceiling in USD (0 = no ceiling)")
}

func runRoute(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	categoryName, _ := cmd.Flags().GetString("category")
	prefer, _ := cmd.Flags().GetString("prefer")
	minQuality, _ := cmd.Flags().GetString("min-quality")
	maxCost, _ := cmd.Flags().GetFloat64("max-cost")

	cons := router.Constraints{PreferredModelKey: prefer, MaxCostUSD: maxCost}
	if minQuality != "" {
		cons.MinQuality = catalog.ParseTier(minQuality, catalog.TierFast)
	}

	dec, err := app.router.Route(args[0], router.Category(categoryName), cons)
	if err != nil {
		return err
	}
	return printJSON(dec)
}
