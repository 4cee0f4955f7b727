package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/budget"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show or reset the monthly spend ledger",
	Long: `Print the ledger state: monthly limit, remaining balance, and spend
so far. --reset starts a fresh month at the configured limit, and
--set-limit overrides the limit while keeping the spend.`,
	Args: cobra.NoArgs,
	RunE: runBudget,
}

func init() {
	budgetCmd.Flags().Bool("reset", false, "reset the ledger to the configured monthly limit")
	budgetCmd.Flags().Float64("set-limit", 0, "set a new monthly limit in USD")
}

func runBudget(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	reset, _ := cmd.Flags().GetBool("reset")
	newLimit, _ := cmd.Flags().GetFloat64("set-limit")

	st := app.ledger.Snapshot()
	switch {
	case reset:
		st = budget.NewLedger(app.cfg.Budget.MonthlyLimitUSD).Snapshot()
	case newLimit > 0:
		spent := st.MonthlyLimitUSD - st.RemainingUSD
		st = budget.State{MonthlyLimitUSD: newLimit, RemainingUSD: newLimit - spent}
	}
	if reset || newLimit > 0 {
		if err := app.store.WriteBudget(st); err != nil {
			return err
		}
	}

	fmt.Printf("limit:     $%.2f\n", st.MonthlyLimitUSD)
	fmt.Printf("spent:     $%.4f\n", st.MonthlyLimitUSD-st.RemainingUSD)
	fmt.Printf("remaining: $%.4f\n", st.RemainingUSD)
	return nil
}
