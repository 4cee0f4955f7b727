// Package router picks which model serves a task.
//
// Routing is a two-phase design: the router decides what it would pick,
// and the call site gates and charges spending. Because of that split the
// router never fails for "no perfect candidate": every filter that would
// empty the candidate set is skipped with a recorded note, and an
// over-budget pick is returned with the compromise noted rather than
// rejected. Budget enforcement happens where the call is made.
package router

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/cost"
)

// Category classifies the task being routed.
type Category string

// Task categories.
const (
	CategoryGeneral     Category = "general"
	CategoryPlanning    Category = "planning"
	CategoryCouncil     Category = "council"
	CategoryModelRating Category = "model-rating"
	CategoryExecution   Category = "execution"
	CategorySynthesis   Category = "synthesis"
)

// frontierRequired lists the categories that narrow to the catalog's
// critical keys when the catalog is verifiably fresh.
var frontierRequired = map[Category]bool{
	CategoryPlanning:    true,
	CategoryCouncil:     true,
	CategoryModelRating: true,
}

// Constraints restricts candidate selection for one route. Zero values
// impose no constraint.
type Constraints struct {
	// PreferredModelKey narrows to a single model when it is routable;
	// otherwise the preference is ignored with a note.
	PreferredModelKey string

	// MinQuality filters out candidates below the tier.
	MinQuality catalog.Tier

	// MaxCostUSD filters out candidates whose estimate exceeds it.
	MaxCostUSD float64
}

// Candidate is one routable model with its cost estimate for the task.
type Candidate struct {
	Model            catalog.ModelConfig `json:"model"`
	EstimatedCostUSD float64             `json:"estimatedCostUsd"`
}

// Decision is the router's choice plus ordered fallbacks. Transient:
// produced per routing call, never persisted.
type Decision struct {
	Provider         string              `json:"provider"`
	ModelID          string              `json:"modelId"`
	ModelKey         string              `json:"modelKey"`
	Quality          catalog.Tier        `json:"quality"`
	Rationale        string              `json:"rationale"`
	EstimatedCostUSD float64             `json:"estimatedCostUsd"`
	Fallbacks        []Candidate         `json:"fallbacks"`
	Notes            []string            `json:"notes,omitempty"`
	Model            catalog.ModelConfig `json:"-"`
}

// ErrNoCandidates is the only routing failure: an empty catalog leaves
// nothing to decide between even after every relaxation step.
var ErrNoCandidates = fmt.Errorf("no routable candidates")

// Option configures a Router.
type Option func(*Router)

// WithCredentials supplies the provider→available map used by the
// credential filter. Built once at process start; the router itself never
// reads the environment.
func WithCredentials(creds map[string]bool) Option {
	return func(r *Router) { r.creds = creds }
}

// WithFreshness supplies the catalog freshness record consulted by the
// frontier-only filter.
func WithFreshness(f catalog.Freshness) Option {
	return func(r *Router) { r.fresh = f }
}

// WithCostOptimization toggles budget-aware picking. When disabled the
// router always picks the cheapest candidate outright, ignoring the
// remaining budget.
func WithCostOptimization(enabled bool) Option {
	return func(r *Router) { r.costOptimize = enabled }
}

// WithMaxOutputTokens sets the output token volume assumed by estimates.
func WithMaxOutputTokens(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxOutputTokens = n
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// DefaultMaxOutputTokens is the assumed response size when estimating a
// route's cost.
const DefaultMaxOutputTokens = 2000

// promptOverheadTokens pads the input estimate for system prompt and
// response-contract boilerplate wrapped around the task text.
const promptOverheadTokens = 200

// Router builds ranked candidate lists from the catalog and picks the
// cheapest one the budget allows.
type Router struct {
	cat             catalog.Catalog
	ledger          *budget.Ledger
	creds           map[string]bool
	fresh           catalog.Freshness
	costOptimize    bool
	maxOutputTokens int
	logger          *slog.Logger
}

// New creates a Router over a catalog snapshot. Callers that cache the
// catalog must construct a new Router after a refresh.
func New(cat catalog.Catalog, ledger *budget.Ledger, opts ...Option) *Router {
	r := &Router{
		cat:             cat,
		ledger:          ledger,
		costOptimize:    true,
		maxOutputTokens: DefaultMaxOutputTokens,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog snapshot this router routes over.
func (r *Router) Catalog() catalog.Catalog { return r.cat }

// Route returns the decision for a task. The only error is an empty
// catalog; every other imperfection is a note on the decision.
func (r *Router) Route(task string, category Category, cons Constraints) (Decision, error) {
	inTokens := cost.EstimateTokens(task) + promptOverheadTokens
	outTokens := r.maxOutputTokens

	candidates := make([]Candidate, 0, len(r.cat.Models))
	for _, m := range r.cat.Models {
		candidates = append(candidates, Candidate{
			Model:            m,
			EstimatedCostUSD: cost.Estimate(m, inTokens, outTokens),
		})
	}
	if len(candidates) == 0 {
		return Decision{}, ErrNoCandidates
	}

	var notes []string
	keep := func(filtered []Candidate, skipNote string) []Candidate {
		if len(filtered) == 0 {
			notes = append(notes, skipNote)
			return candidates
		}
		return filtered
	}

	// Credential availability. Prefer having a decision over failing:
	// an empty result skips the filter.
	if len(r.creds) > 0 {
		var avail []Candidate
		for _, c := range candidates {
			if r.creds[c.Model.Provider] {
				avail = append(avail, c)
			}
		}
		candidates = keep(avail, "no provider credentials configured; credential filter skipped")
	}

	// Preferred model, when it survived the filters so far.
	if cons.PreferredModelKey != "" {
		var preferred []Candidate
		for _, c := range candidates {
			if c.Model.Key == cons.PreferredModelKey {
				preferred = append(preferred, c)
			}
		}
		candidates = keep(preferred, fmt.Sprintf("preferred model %q not routable; preference ignored", cons.PreferredModelKey))
	}

	// Minimum quality tier.
	if cons.MinQuality != "" {
		minRank := cons.MinQuality.Rank()
		var quality []Candidate
		for _, c := range candidates {
			if c.Model.Quality.Rank() >= minRank {
				quality = append(quality, c)
			}
		}
		candidates = keep(quality, fmt.Sprintf("no candidate at quality >= %s; quality filter skipped", cons.MinQuality))
	}

	// Maximum cost.
	if cons.MaxCostUSD > 0 {
		var affordable []Candidate
		for _, c := range candidates {
			if c.EstimatedCostUSD <= cons.MaxCostUSD {
				affordable = append(affordable, c)
			}
		}
		candidates = keep(affordable, fmt.Sprintf("no candidate under $%.4f; max-cost filter skipped", cons.MaxCostUSD))
	}

	// Frontier narrowing: only when the catalog is verifiably fresh and
	// every critical key is present. Staleness never fails a route. The
	// status is recomputed from the verification timestamp so a record
	// stamped fresh stops narrowing once its TTL expires.
	if frontierRequired[category] {
		status := r.fresh.CurrentStatus(time.Now())
		if status == catalog.StatusFresh && r.fresh.CriticalOk && len(r.fresh.CriticalKeys) > 0 {
			critical := make(map[string]bool, len(r.fresh.CriticalKeys))
			for _, k := range r.fresh.CriticalKeys {
				critical[k] = true
			}
			var frontier []Candidate
			for _, c := range candidates {
				if critical[c.Model.Key] {
					frontier = append(frontier, c)
				}
			}
			candidates = keep(frontier, "critical models filtered out upstream; frontier narrowing skipped")
		} else {
			notes = append(notes, fmt.Sprintf("catalog freshness %q; frontier narrowing skipped", status))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].EstimatedCostUSD != candidates[j].EstimatedCostUSD {
			return candidates[i].EstimatedCostUSD < candidates[j].EstimatedCostUSD
		}
		return r.cat.ProviderRank(candidates[i].Model.Provider) < r.cat.ProviderRank(candidates[j].Model.Provider)
	})

	chosenIdx := 0
	rationale := "cheapest candidate"
	if r.costOptimize {
		remaining := r.ledger.Remaining()
		fits := -1
		for i, c := range candidates {
			if c.EstimatedCostUSD <= remaining {
				fits = i
				break
			}
		}
		if fits >= 0 {
			chosenIdx = fits
			rationale = "cheapest candidate fitting remaining budget"
		} else {
			// Budget enforcement happens at the call site; the route
			// records the overrun instead of failing.
			notes = append(notes, fmt.Sprintf("estimate $%.4f exceeds remaining budget $%.4f", candidates[0].EstimatedCostUSD, remaining))
			rationale = "cheapest candidate (over budget)"
		}
	}

	chosen := candidates[chosenIdx]
	fallbacks := make([]Candidate, 0, len(candidates)-1)
	for i, c := range candidates {
		if i != chosenIdx {
			fallbacks = append(fallbacks, c)
		}
	}

	dec := Decision{
		Provider:         chosen.Model.Provider,
		ModelID:          chosen.Model.ModelID,
		ModelKey:         chosen.Model.Key,
		Quality:          chosen.Model.Quality,
		Rationale:        fmt.Sprintf("%s for %s task", rationale, category),
		EstimatedCostUSD: chosen.EstimatedCostUSD,
		Fallbacks:        fallbacks,
		Notes:            notes,
		Model:            chosen.Model,
	}
	r.logger.Debug("routed task",
		"category", string(category),
		"model", dec.ModelKey,
		"estimate_usd", dec.EstimatedCostUSD,
		"notes", len(notes),
	)
	return dec, nil
}
