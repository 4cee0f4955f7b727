package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-et-al/janus/catalog"
)

var learnNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func learnCatalog() catalog.Catalog {
	return catalog.Catalog{
		Models: []catalog.ModelConfig{
			{Key: "m/alpha", Provider: "p", ModelID: "alpha", Quality: catalog.TierQuality},
			{Key: "m/beta", Provider: "p", ModelID: "beta", Quality: catalog.TierBalanced},
			{Key: "m/gamma", Provider: "p", ModelID: "gamma", Quality: catalog.TierFast},
			{Key: "m/delta", Provider: "p", ModelID: "delta", Quality: catalog.TierBalanced},
		},
	}
}

// mkEvents produces count identical ratings for a model at the given age.
func mkEvents(key string, rating, count int, ageDays float64) []Event {
	out := make([]Event, count)
	for i := range out {
		out[i] = Event{
			ID:         "e",
			Timestamp:  learnNow.Add(-time.Duration(ageDays * 24 * float64(time.Hour))),
			ToModelKey: key,
			Rating:     rating,
			Method:     MethodPeer,
		}
	}
	return out
}

func TestRecomputeTooFewEligibleKeepsBaseTiers(t *testing.T) {
	base := learnCatalog()
	// Only one model qualifies; MinEligible is 3.
	events := mkEvents("m/alpha", 5, 4, 0)

	snap := NewLearner(LearnerConfig{}).Recompute(base, nil, events, learnNow)

	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, Algorithm, snap.Algorithm)
	for _, m := range base.Models {
		assert.Equal(t, m.Quality, snap.Tiers[m.Key], "tier for %s", m.Key)
	}
	assert.Equal(t, 4, snap.RatingCounts["m/alpha"])
}

func TestRecomputeClampsToOneRank(t *testing.T) {
	base := learnCatalog()
	var events []Event
	// gamma (base fast) rates best, alpha (base quality) rates worst.
	events = append(events, mkEvents("m/gamma", 5, 3, 0)...)
	events = append(events, mkEvents("m/beta", 3, 3, 0)...)
	events = append(events, mkEvents("m/alpha", 1, 3, 0)...)

	snap := NewLearner(LearnerConfig{}).Recompute(base, nil, events, learnNow)

	// gamma earned the top bucket but may only climb one tier per pass.
	assert.Equal(t, catalog.TierBalanced, snap.Tiers["m/gamma"])
	// alpha landed in the bottom bucket but may only fall one tier.
	assert.Equal(t, catalog.TierBalanced, snap.Tiers["m/alpha"])
	assert.Equal(t, catalog.TierBalanced, snap.Tiers["m/beta"])
	// delta has no ratings and keeps its base tier.
	assert.Equal(t, catalog.TierBalanced, snap.Tiers["m/delta"])
}

func TestRecomputeConvergesAcrossPasses(t *testing.T) {
	base := learnCatalog()
	var events []Event
	events = append(events, mkEvents("m/gamma", 5, 3, 0)...)
	events = append(events, mkEvents("m/beta", 3, 3, 0)...)
	events = append(events, mkEvents("m/alpha", 1, 3, 0)...)

	learner := NewLearner(LearnerConfig{})
	first := learner.Recompute(base, nil, events, learnNow)
	second := learner.Recompute(base, first, events, learnNow.Add(time.Hour))

	assert.Equal(t, 2, second.Version)
	// With the previous snapshot as reference the second pass completes
	// the movement the first pass clamped.
	assert.Equal(t, catalog.TierQuality, second.Tiers["m/gamma"])
	assert.Equal(t, catalog.TierFast, second.Tiers["m/alpha"])
}

func TestRecomputeDemotesLowRatedBuckets(t *testing.T) {
	base := learnCatalog()
	var events []Event
	// The top bucket averages 3.0, below the 3.5 quality threshold.
	events = append(events, mkEvents("m/alpha", 3, 3, 0)...)
	events = append(events, mkEvents("m/beta", 2, 3, 0)...)
	events = append(events, mkEvents("m/gamma", 1, 3, 0)...)

	snap := NewLearner(LearnerConfig{}).Recompute(base, nil, events, learnNow)

	// alpha tops the ranking but its bucket is demoted to balanced.
	assert.Equal(t, catalog.TierBalanced, snap.Tiers["m/alpha"])
	// beta's middle bucket averages 2.0, below the 2.5 threshold.
	assert.Equal(t, catalog.TierFast, snap.Tiers["m/beta"])
	assert.Equal(t, catalog.TierFast, snap.Tiers["m/gamma"])
}

func TestRecomputeExcludesSparseModels(t *testing.T) {
	base := learnCatalog()
	var events []Event
	events = append(events, mkEvents("m/alpha", 4, 3, 0)...)
	events = append(events, mkEvents("m/beta", 3, 3, 0)...)
	events = append(events, mkEvents("m/gamma", 2, 3, 0)...)
	// delta has signal but not enough of it.
	events = append(events, mkEvents("m/delta", 5, 2, 0)...)

	snap := NewLearner(LearnerConfig{}).Recompute(base, nil, events, learnNow)

	assert.Equal(t, catalog.TierBalanced, snap.Tiers["m/delta"], "sparse model keeps its base tier")
	_, ranked := snap.Scores["m/delta"]
	assert.False(t, ranked, "sparse model must not be scored")
	assert.Equal(t, 2, snap.RatingCounts["m/delta"])
}

func TestRecomputeDecaysOldRatings(t *testing.T) {
	base := learnCatalog()
	var events []Event
	events = append(events, mkEvents("m/alpha", 5, 1, 0)...)
	// One half-life old: weight 0.5.
	events = append(events, mkEvents("m/alpha", 1, 1, 30)...)

	snap := NewLearner(LearnerConfig{}).Recompute(base, nil, events, learnNow)

	// Weighted mean (5*1 + 1*0.5) / 1.5, versus the unweighted 3.0.
	assert.InDelta(t, 3.6667, snap.AvgRatings["m/alpha"], 0.001)
}

func TestRecomputeIgnoresBadEvents(t *testing.T) {
	base := learnCatalog()
	events := []Event{
		{ID: "bad1", Timestamp: learnNow, ToModelKey: "m/alpha", Rating: 0},
		{ID: "bad2", Timestamp: learnNow, ToModelKey: "not/in-catalog", Rating: 4},
	}

	snap := NewLearner(LearnerConfig{}).Recompute(base, nil, events, learnNow)

	assert.Empty(t, snap.RatingCounts)
	assert.Equal(t, catalog.TierQuality, snap.Tiers["m/alpha"])
}

func TestRecomputeVersionIncrements(t *testing.T) {
	base := learnCatalog()
	prev := &catalog.TierSnapshot{Version: 4}

	snap := NewLearner(LearnerConfig{}).Recompute(base, prev, nil, learnNow)

	assert.Equal(t, 5, snap.Version)
}
