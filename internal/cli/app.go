package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/config"
	"github.com/AI-et-al/janus/provider"
	_ "github.com/AI-et-al/janus/providers"
	"github.com/AI-et-al/janus/router"
	"github.com/AI-et-al/janus/store"
)

// app bundles the wired-up subsystems every command needs. The ledger is
// restored from the store at startup and must be flushed with saveBudget
// after any command that spends.
type app struct {
	cfg    config.Config
	store  *store.FileStore
	cat    catalog.Catalog
	ledger *budget.Ledger
	pool   *provider.Pool
	router *router.Router
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg = cfg.ApplyEnv()

	fs, err := store.NewFileStore(cfg.Store.Root)
	if err != nil {
		return nil, err
	}

	cat, err := fs.ReadCatalog()
	if err != nil {
		return nil, err
	}
	snap, err := fs.ReadTierSnapshot()
	if err != nil {
		return nil, err
	}
	cat = cat.WithTiers(snap)

	fresh, err := fs.ReadFreshness()
	if err != nil {
		return nil, err
	}

	st, found, err := fs.ReadBudget()
	if err != nil {
		return nil, err
	}
	var ledger *budget.Ledger
	if found {
		ledger = budget.Restore(st)
	} else {
		ledger = budget.NewLedger(cfg.Budget.MonthlyLimitUSD)
	}

	configs := make(map[string]provider.Config, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		configs[name] = provider.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL}
	}
	pool := provider.NewPool(configs)

	r := router.New(cat, ledger,
		router.WithCredentials(pool.Credentials()),
		router.WithFreshness(fresh),
		router.WithCostOptimization(cfg.Router.CostOptimization),
		router.WithMaxOutputTokens(cfg.Router.MaxOutputTokens),
	)

	return &app{cfg: cfg, store: fs, cat: cat, ledger: ledger, pool: pool, router: r}, nil
}

// saveBudget persists the ledger after a spending command.
func (a *app) saveBudget() error {
	return a.store.WriteBudget(a.ledger.Snapshot())
}

func (a *app) close() {
	if err := a.pool.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing providers: %v\n", err)
	}
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
