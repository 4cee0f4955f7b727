package cli

import (
	"fmt"
	"net/http"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and verify the model catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the model catalog with pricing and tiers",
	Args:  cobra.NoArgs,
	RunE:  runCatalogShow,
}

var catalogVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify catalog freshness and provider reachability",
	Long: `Check that every provider with configured credentials answers on its
API endpoint, confirm the critical model keys are present, and stamp the
freshness record. The router uses the freshness record to decide whether
frontier-required categories may narrow to the critical model set.`,
	Args: cobra.NoArgs,
	RunE: runCatalogVerify,
}

func init() {
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogVerifyCmd)
	catalogVerifyCmd.Flags().Duration("timeout", 10*time.Second, "per-provider reachability timeout")
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	keys := app.cat.Keys()
	sort.Strings(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tPROVIDER\tMODEL\tTIER\t$/M IN\t$/M OUT")
	for _, key := range keys {
		m, _ := app.cat.Get(key)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
			key, m.Provider, m.ModelID, m.Quality, m.CostPerMTokIn, m.CostPerMTokOut)
	}
	return w.Flush()
}

// probeEndpoints maps provider names to a cheap unauthenticated endpoint
// whose response (any HTTP status) proves the API is reachable.
var probeEndpoints = map[string]string{
	"anthropic": "https://api.anthropic.com/v1/models",
	"openai":    "https://api.openai.com/v1/models",
	"gemini":    "https://generativelanguage.googleapis.com/v1beta/models",
	"groq":      "https://api.groq.com/openai/v1/models",
}

func runCatalogVerify(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	client := &http.Client{Timeout: timeout}

	allReachable := true
	for provider, available := range app.pool.Credentials() {
		if !available {
			continue
		}
		url, ok := probeEndpoints[provider]
		if !ok {
			continue
		}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			fmt.Printf("%-10s unreachable: %v\n", provider, err)
			allReachable = false
			continue
		}
		resp.Body.Close()
		fmt.Printf("%-10s reachable (HTTP %d)\n", provider, resp.StatusCode)
	}

	fresh, err := app.store.ReadFreshness()
	if err != nil {
		return err
	}
	fresh = fresh.Verify(app.cat, time.Now().UTC())
	if !allReachable {
		fresh.Status = catalog.StatusStale
		fresh.Notes = "one or more providers unreachable"
	}
	if err := app.store.WriteFreshness(fresh); err != nil {
		return err
	}

	fmt.Printf("freshness: %s (critical keys ok: %v)\n", fresh.Status, fresh.CriticalOk)
	return nil
}
