package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/executor"
)

var execCmd = &cobra.Command{
	Use:   "exec <goal>",
	Short: "Plan and execute constrained repo operations",
	Long: `Ask a model for a JSON plan of file writes and allowlisted commands,
validate the whole plan against the safety policy, and execute it action
by action inside the configured repo root. The first failing action halts
the plan. Every prompt, response, and action result is archived as an
artifact, and a receipt is printed as JSON.

The repo root, command allowlist, and size limits come from the
[executor] section of the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().String("context", "", "prior context passed to the planner as reference data")
}

func runExec(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	priorContext, _ := cmd.Flags().GetString("context")

	sandbox := executor.New(app.router, app.pool, app.ledger, app.store,
		app.cfg.Executor.Policy(), app.cfg.Executor.Sandbox())
	res, err := sandbox.Execute(cmd.Context(), args[0], priorContext)
	if serr := app.saveBudget(); serr != nil {
		fmt.Fprintf(os.Stderr, "warning: persisting budget: %v\n", serr)
	}
	if err != nil {
		return err
	}
	if perr := printJSON(res); perr != nil {
		return perr
	}
	if !res.Success {
		return fmt.Errorf("execution failed: %s", res.OutputSummary)
	}
	return nil
}
