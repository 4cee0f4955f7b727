package catalog

import "strings"

// Tier is a model's quality classification. The catalog carries a static
// default per model; the learned tier snapshot may override it.
type Tier string

// Quality tiers in ascending order of capability.
const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
)

// Rank returns the tier's position in the quality ordering:
// fast=0, balanced=1, quality=2. Unknown tiers rank as fast.
func (t Tier) Rank() int {
	switch t {
	case TierQuality:
		return 2
	case TierBalanced:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFast, TierBalanced, TierQuality:
		return true
	}
	return false
}

// TierFromRank maps a quality rank back to its tier. Ranks are clamped
// into [0,2] so arithmetic on ranks cannot produce an invalid tier.
func TierFromRank(rank int) Tier {
	switch {
	case rank <= 0:
		return TierFast
	case rank == 1:
		return TierBalanced
	default:
		return TierQuality
	}
}

// ParseTier normalizes a tier string, mapping unknown values to the
// given fallback.
func ParseTier(s string, fallback Tier) Tier {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return fallback
}
