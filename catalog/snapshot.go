package catalog

import "time"

// TierSnapshot is a learned tier assignment produced by a rating recompute.
// Each recompute fully replaces the previous snapshot; the previous one is
// consulted only to bound how far any model's tier may move in one step.
type TierSnapshot struct {
	Version      int                `json:"version"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Algorithm    string             `json:"algorithm"`
	Tiers        map[string]Tier    `json:"tiers"`
	Scores       map[string]float64 `json:"scores"`
	AvgRatings   map[string]float64 `json:"avgRatings"`
	RatingCounts map[string]int     `json:"ratingCounts"`
}

// TierFor returns the snapshot's tier for a model key, or the given
// fallback when the key is absent.
func (s *TierSnapshot) TierFor(key string, fallback Tier) Tier {
	if s == nil {
		return fallback
	}
	if t, ok := s.Tiers[key]; ok && t.Valid() {
		return t
	}
	return fallback
}
