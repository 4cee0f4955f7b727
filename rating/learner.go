package rating

import (
	"math"
	"sort"
	"time"

	"github.com/AI-et-al/janus/catalog"
)

// Algorithm identifies the recompute algorithm in snapshots it produces.
const Algorithm = "decayed-peer-score/v1"

// scoreEpsilon keeps the score denominator away from zero when a model has
// no cost or latency observations.
const scoreEpsilon = 1e-3

// LearnerConfig tunes the tier recompute.
type LearnerConfig struct {
	// HalfLifeDays controls the exponential time decay of rating weight.
	HalfLifeDays float64

	// MinRatings is the rating count below which a model keeps its
	// previous tier and is excluded from ranking.
	MinRatings int

	// MinEligible is the number of rankable models below which the
	// recompute copies the base tiers forward unchanged.
	MinEligible int

	// QualityMinAvg and BalancedMinAvg demote a bucket one step when its
	// average rating falls below the threshold.
	QualityMinAvg  float64
	BalancedMinAvg float64
}

// DefaultLearnerConfig returns the standard tuning: 30-day half-life,
// 3 ratings to qualify, 3 qualifying models to re-rank.
func DefaultLearnerConfig() LearnerConfig {
	return LearnerConfig{
		HalfLifeDays:   30,
		MinRatings:     3,
		MinEligible:    3,
		QualityMinAvg:  3.5,
		BalancedMinAvg: 2.5,
	}
}

func (c LearnerConfig) withDefaults() LearnerConfig {
	d := DefaultLearnerConfig()
	if c.HalfLifeDays <= 0 {
		c.HalfLifeDays = d.HalfLifeDays
	}
	if c.MinRatings <= 0 {
		c.MinRatings = d.MinRatings
	}
	if c.MinEligible <= 0 {
		c.MinEligible = d.MinEligible
	}
	if c.QualityMinAvg <= 0 {
		c.QualityMinAvg = d.QualityMinAvg
	}
	if c.BalancedMinAvg <= 0 {
		c.BalancedMinAvg = d.BalancedMinAvg
	}
	return c
}

// Learner recomputes tier snapshots from the full rating history.
type Learner struct {
	cfg LearnerConfig
}

// NewLearner creates a learner; zero config fields take defaults.
func NewLearner(cfg LearnerConfig) *Learner {
	return &Learner{cfg: cfg.withDefaults()}
}

// modelStats aggregates the decayed per-model observations.
type modelStats struct {
	key         string
	count       int
	meanRating  float64
	meanCost    float64
	meanLatency float64
	score       float64
}

// Recompute builds a new tier snapshot from the catalog's base tiers, the
// previous snapshot, and the full rating history. Guarantees:
//
//   - no model's tier moves more than one rank versus the previous snapshot
//     (or its base tier when the previous snapshot lacks the key);
//   - with fewer than MinEligible qualifying models the snapshot carries the
//     base tiers unchanged;
//   - models below MinRatings keep their previous tier and are not ranked.
func (l *Learner) Recompute(base catalog.Catalog, prev *catalog.TierSnapshot, events []Event, now time.Time) *catalog.TierSnapshot {
	snap := &catalog.TierSnapshot{
		Version:      1,
		GeneratedAt:  now,
		Algorithm:    Algorithm,
		Tiers:        make(map[string]catalog.Tier, len(base.Models)),
		Scores:       make(map[string]float64),
		AvgRatings:   make(map[string]float64),
		RatingCounts: make(map[string]int),
	}
	if prev != nil {
		snap.Version = prev.Version + 1
	}

	stats := l.aggregate(base, events, now)
	for _, s := range stats {
		snap.AvgRatings[s.key] = s.meanRating
		snap.RatingCounts[s.key] = s.count
	}

	var eligible []*modelStats
	for _, s := range stats {
		if s.count >= l.cfg.MinRatings {
			eligible = append(eligible, s)
		}
	}

	// Insufficient signal to re-rank: carry base tiers forward.
	if len(eligible) < l.cfg.MinEligible {
		for _, m := range base.Models {
			snap.Tiers[m.Key] = m.Quality
		}
		return snap
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].score > eligible[j].score
	})
	target := l.bucketTiers(eligible)

	for _, m := range base.Models {
		ref := m.Quality
		if prev != nil {
			ref = prev.TierFor(m.Key, m.Quality)
		}
		want, ranked := target[m.Key]
		if !ranked {
			snap.Tiers[m.Key] = ref
			continue
		}
		snap.Tiers[m.Key] = clampTier(ref, want)
		snap.Scores[m.Key] = roundScore(scoreOf(stats, m.Key))
	}
	return snap
}

// aggregate computes decayed per-model means and the population-median
// normalized score. Events for keys absent from the catalog are ignored.
func (l *Learner) aggregate(base catalog.Catalog, events []Event, now time.Time) []*modelStats {
	known := make(map[string]bool, len(base.Models))
	for _, m := range base.Models {
		known[m.Key] = true
	}

	type accum struct {
		wSum, ratingSum float64
		costW, costSum  float64
		latW, latSum    float64
		count           int
	}
	acc := make(map[string]*accum)
	var allCosts, allLatencies []float64

	halfLife := l.cfg.HalfLifeDays
	for _, e := range events {
		if e.Validate() != nil || !known[e.ToModelKey] {
			continue
		}
		ageDays := now.Sub(e.Timestamp).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		w := math.Exp(-math.Ln2 * ageDays / halfLife)

		a := acc[e.ToModelKey]
		if a == nil {
			a = &accum{}
			acc[e.ToModelKey] = a
		}
		a.count++
		a.wSum += w
		a.ratingSum += w * float64(e.Rating)
		if e.CostAtTimeUSD > 0 {
			a.costW += w
			a.costSum += w * e.CostAtTimeUSD
			allCosts = append(allCosts, e.CostAtTimeUSD)
		}
		if e.LatencyAtMs > 0 {
			a.latW += w
			a.latSum += w * float64(e.LatencyAtMs)
			allLatencies = append(allLatencies, float64(e.LatencyAtMs))
		}
	}

	medCost := median(allCosts)
	medLatency := median(allLatencies)

	out := make([]*modelStats, 0, len(acc))
	for key, a := range acc {
		s := &modelStats{key: key, count: a.count}
		if a.wSum > 0 {
			s.meanRating = a.ratingSum / a.wSum
		}
		if a.costW > 0 {
			s.meanCost = a.costSum / a.costW
		}
		if a.latW > 0 {
			s.meanLatency = a.latSum / a.latW
		}
		// Normalizing by the population median keeps one axis from
		// dominating when cost and latency live on different scales.
		var normCost, normLatency float64
		if medCost > 0 {
			normCost = s.meanCost / medCost
		}
		if medLatency > 0 {
			normLatency = s.meanLatency / medLatency
		}
		s.score = s.meanRating / (normCost + normLatency + scoreEpsilon)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// bucketTiers splits score-ranked models into three near-equal buckets and
// demotes a bucket one step when its average rating is below the tier's
// threshold.
func (l *Learner) bucketTiers(ranked []*modelStats) map[string]catalog.Tier {
	n := len(ranked)
	buckets := [3][]*modelStats{}
	for i, s := range ranked {
		buckets[i*3/n] = append(buckets[i*3/n], s)
	}

	tierFor := [3]catalog.Tier{catalog.TierQuality, catalog.TierBalanced, catalog.TierFast}
	out := make(map[string]catalog.Tier, n)
	for b, members := range buckets {
		tier := tierFor[b]
		avg := bucketAvgRating(members)
		switch tier {
		case catalog.TierQuality:
			if avg < l.cfg.QualityMinAvg {
				tier = catalog.TierBalanced
			}
		case catalog.TierBalanced:
			if avg < l.cfg.BalancedMinAvg {
				tier = catalog.TierFast
			}
		}
		for _, s := range members {
			out[s.key] = tier
		}
	}
	return out
}

// clampTier limits tier movement to one rank per recompute.
func clampTier(ref, want catalog.Tier) catalog.Tier {
	delta := want.Rank() - ref.Rank()
	if delta > 1 {
		delta = 1
	} else if delta < -1 {
		delta = -1
	}
	return catalog.TierFromRank(ref.Rank() + delta)
}

func bucketAvgRating(members []*modelStats) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, s := range members {
		sum += s.meanRating
	}
	return sum / float64(len(members))
}

func scoreOf(stats []*modelStats, key string) float64 {
	for _, s := range stats {
		if s.key == key {
			return s.score
		}
	}
	return 0
}

func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
