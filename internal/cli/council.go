package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/council"
)

var councilCmd = &cobra.Command{
	Use:   "council <task>",
	Short: "Run a multi-advisor deliberation",
	Long: `Send the task to every configured advisor in parallel, synthesize
their proposals into a consensus/disagreement summary, and print the full
deliberation as JSON. With --rate, the synthesis model also rates each
advisor's proposal afterwards and the ratings feed tier learning.

The advisor roster and synthesis model come from the [council] section of
the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runCouncil,
}

func init() {
	councilCmd.Flags().String("context", "", "prior context passed to advisors as reference data")
	councilCmd.Flags().Bool("rate", false, "rate advisor proposals after synthesis")
}

func runCouncil(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	priorContext, _ := cmd.Flags().GetString("context")
	rate, _ := cmd.Flags().GetBool("rate")

	orch := council.New(app.router, app.pool, app.ledger, app.store, app.cfg.Council.Council())
	delib, err := orch.Deliberate(cmd.Context(), args[0], priorContext)
	// Advisor calls may have charged the ledger even when the run as a
	// whole failed, so the budget is persisted unconditionally.
	if serr := app.saveBudget(); serr != nil {
		fmt.Fprintf(os.Stderr, "warning: persisting budget: %v\n", serr)
	}
	if err != nil {
		return err
	}

	if rate {
		events, rerr := orch.RateProposals(cmd.Context(), delib)
		if rerr != nil {
			fmt.Fprintf(os.Stderr, "warning: rating proposals: %v\n", rerr)
		} else {
			fmt.Fprintf(os.Stderr, "recorded %d peer ratings\n", len(events))
		}
		if serr := app.saveBudget(); serr != nil {
			fmt.Fprintf(os.Stderr, "warning: persisting budget: %v\n", serr)
		}
	}
	return printJSON(delib)
}
