package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI-et-al/janus/rating"
)

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Inspect and recompute learned model tiers",
}

var tiersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current tier assignments",
	Args:  cobra.NoArgs,
	RunE:  runTiersShow,
}

var tiersRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute tiers from the peer rating history",
	Long: `Re-rank models from the accumulated peer ratings, with older ratings
decayed by a configurable half-life, and write a new tier snapshot. Models
with too few ratings keep their previous tier, and no model moves more
than one tier per recompute.`,
	Args: cobra.NoArgs,
	RunE: runTiersRecompute,
}

func init() {
	tiersCmd.AddCommand(tiersShowCmd)
	tiersCmd.AddCommand(tiersRecomputeCmd)
	tiersShowCmd.Flags().Bool("json", false, "print the raw snapshot as JSON")
}

func runTiersShow(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	snap, err := app.store.ReadTierSnapshot()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if snap == nil {
			fmt.Println("null")
			return nil
		}
		return printJSON(snap)
	}

	cat := app.cat
	keys := cat.Keys()
	sort.Strings(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tBASE\tEFFECTIVE\tSCORE\tRATINGS")
	for _, key := range keys {
		m, _ := cat.Get(key)
		effective := m.Quality
		score, count := "-", "-"
		if snap != nil {
			effective = snap.TierFor(key, m.Quality)
			if s, ok := snap.Scores[key]; ok {
				score = fmt.Sprintf("%.3f", s)
			}
			if n, ok := snap.RatingCounts[key]; ok {
				count = fmt.Sprintf("%d", n)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", key, m.Quality, effective, score, count)
	}
	if snap != nil {
		fmt.Fprintf(w, "\nsnapshot v%d\t%s\t%s\n", snap.Version, snap.Algorithm, snap.GeneratedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runTiersRecompute(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	base, err := app.store.ReadCatalog()
	if err != nil {
		return err
	}
	prev, err := app.store.ReadTierSnapshot()
	if err != nil {
		return err
	}
	events, err := app.store.ListRatings()
	if err != nil {
		return err
	}

	learner := rating.NewLearner(app.cfg.Rating.Learner())
	snap := learner.Recompute(base, prev, events, time.Now().UTC())
	if err := app.store.WriteTierSnapshot(snap); err != nil {
		return err
	}

	fmt.Printf("tier snapshot v%d written from %d ratings\n", snap.Version, len(events))
	return printJSON(snap)
}
