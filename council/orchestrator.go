package council

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/cost"
	"github.com/AI-et-al/janus/provider"
	"github.com/AI-et-al/janus/router"
	"github.com/AI-et-al/janus/store"
)

// Sentinel errors for deliberation setup.
var (
	// ErrNoAdvisors indicates every advisor was dropped for missing
	// credentials; a deliberation needs at least one.
	ErrNoAdvisors = errors.New("no advisors available")

	// ErrUnknownModelKey indicates a roster entry references a model key
	// absent from the catalog.
	ErrUnknownModelKey = errors.New("unknown model key")
)

// taskScope is the artifact task-path for deliberation runs.
const taskScope = "council"

// advisorSystem is the system message shared by all advisor calls.
const advisorSystem = "You are a careful technical advisor. Be specific, state uncertainty honestly, and answer only in the requested JSON shape."

// Orchestrator runs deliberations.
type Orchestrator struct {
	router *router.Router
	pool   *provider.Pool
	ledger *budget.Ledger
	store  store.ContextStore
	cfg    Config
	logger *slog.Logger
}

// New creates an Orchestrator. Zero config fields take defaults.
func New(r *router.Router, pool *provider.Pool, ledger *budget.Ledger, st store.ContextStore, cfg Config) *Orchestrator {
	return &Orchestrator{
		router: r,
		pool:   pool,
		ledger: ledger,
		store:  st,
		cfg:    cfg.WithDefaults(),
		logger: slog.Default(),
	}
}

// seat is one advisor bound to its resolved model and cost estimate.
type seat struct {
	advisor Advisor
	model   catalog.ModelConfig
	estUSD  float64
}

// Deliberate runs the full protocol: resolve the roster, fit the plan to
// the remaining budget, fan out to every surviving advisor concurrently,
// then synthesize. Prior context is treated as untrusted data, never as
// instructions.
func (o *Orchestrator) Deliberate(ctx context.Context, task, priorContext string) (*Deliberation, error) {
	id := uuid.NewString()

	seats, synModel, err := o.resolveRoster()
	if err != nil {
		return nil, err
	}

	prompt := advisorPrompt(task, priorContext)
	inTokens := cost.EstimateTokens(prompt)
	for i := range seats {
		seats[i].estUSD = cost.Estimate(seats[i].model, inTokens, o.cfg.MaxTokensPerCall)
	}

	seats, err = o.fitBudget(seats, synModel, task)
	if err != nil {
		return nil, err
	}

	// Advisor fan-out: the sole point of true parallelism. Every seat
	// produces a Proposal regardless of individual failure.
	proposals := make([]Proposal, len(seats))
	var wg sync.WaitGroup
	for i, s := range seats {
		wg.Add(1)
		go func(i int, s seat) {
			defer wg.Done()
			proposals[i] = o.callAdvisor(ctx, id, s, task, prompt)
		}(i, s)
	}
	wg.Wait()

	outcome, synProposalStats, err := o.synthesize(ctx, id, task, synModel, proposals)
	if err != nil {
		return nil, err
	}

	delib := &Deliberation{
		ID:            id,
		Task:          task,
		Proposals:     proposals,
		Disagreements: outcome.Disagreements,
		Consensus:     outcome.Consensus,
		Synthesized:   outcome.Synthesized,
		Timestamp:     time.Now().UTC(),
	}
	for _, p := range proposals {
		delib.TotalTokens += p.TokenCount
		delib.TotalCostUSD += p.CostUSD
	}
	delib.TotalTokens += synProposalStats.TokenCount
	delib.TotalCostUSD += synProposalStats.CostUSD

	if data, err := json.MarshalIndent(delib, "", "  "); err == nil {
		o.writeArtifact(id, "deliberation.json", data)
	}
	o.logger.Info("deliberation complete",
		"id", id,
		"advisors", len(proposals),
		"disagreements", len(delib.Disagreements),
		"total_cost_usd", delib.TotalCostUSD,
	)
	return delib, nil
}

// resolveRoster binds advisors to catalog models. An unknown model key
// anywhere fails the run; an advisor whose provider lacks credentials is
// dropped with a note. The synthesis model must be fully resolvable.
func (o *Orchestrator) resolveRoster() ([]seat, catalog.ModelConfig, error) {
	cat := o.router.Catalog()

	synModel, ok := cat.Get(o.cfg.SynthesisModelKey)
	if !ok {
		return nil, catalog.ModelConfig{}, fmt.Errorf("synthesis model %q: %w", o.cfg.SynthesisModelKey, ErrUnknownModelKey)
	}
	if !o.pool.HasCredentials(synModel.Provider) {
		return nil, catalog.ModelConfig{}, fmt.Errorf("synthesis provider %q: %w", synModel.Provider, provider.ErrCredentialsNotFound)
	}

	var seats []seat
	for _, a := range o.cfg.Advisors {
		m, ok := cat.Get(a.ModelKey)
		if !ok {
			return nil, catalog.ModelConfig{}, fmt.Errorf("advisor %q model %q: %w", a.ID, a.ModelKey, ErrUnknownModelKey)
		}
		if !o.pool.HasCredentials(m.Provider) {
			o.logger.Warn("dropping advisor: provider has no credentials", "advisor", a.ID, "provider", m.Provider)
			continue
		}
		seats = append(seats, seat{advisor: a, model: m})
	}
	if len(seats) == 0 {
		return nil, catalog.ModelConfig{}, ErrNoAdvisors
	}
	return seats, synModel, nil
}

// fitBudget sheds the costliest advisors until the plan fits the remaining
// budget, keeping at least one. Triggered by the combined advisor plus
// synthesis estimate; aborts before any call when even the minimal roster
// cannot fit.
func (o *Orchestrator) fitBudget(seats []seat, synModel catalog.ModelConfig, task string) ([]seat, error) {
	advisorSum := func() float64 {
		var sum float64
		for _, s := range seats {
			sum += s.estUSD
		}
		return sum
	}
	synthesisEst := func() float64 {
		inTokens := cost.EstimateTokens(task) + len(seats)*o.cfg.MaxTokensPerCall
		return cost.Estimate(synModel, inTokens, o.cfg.MaxTokensPerCall)
	}

	remaining := o.ledger.Remaining()
	if advisorSum()+synthesisEst() <= remaining {
		return seats, nil
	}

	for len(seats) > 1 && advisorSum() > remaining {
		sort.SliceStable(seats, func(i, j int) bool { return seats[i].estUSD > seats[j].estUSD })
		dropped := seats[0]
		seats = seats[1:]
		o.logger.Warn("dropping costliest advisor to fit budget",
			"advisor", dropped.advisor.ID,
			"estimate_usd", dropped.estUSD,
			"remaining_usd", remaining,
		)
	}
	if sum := advisorSum(); sum > remaining {
		return nil, &budget.ExceededError{EstimatedUSD: sum + synthesisEst(), RemainingUSD: remaining}
	}
	return seats, nil
}

// callAdvisor issues one advisor call. Transport errors, timeouts, and
// unparseable output all degrade to a synthetic low-confidence proposal so
// one bad advisor cannot abort the run.
func (o *Orchestrator) callAdvisor(ctx context.Context, delibID string, s seat, task, prompt string) Proposal {
	cctx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	o.writeArtifact(delibID, fmt.Sprintf("advisor_%s_prompt.txt", s.advisor.ID), []byte(prompt))

	// Routing narrowed to the advisor's bound model keeps the routing
	// notes and freshness handling on the council path too.
	model := s.model
	if dec, err := o.router.Route(task, router.CategoryCouncil, router.Constraints{PreferredModelKey: s.advisor.ModelKey}); err == nil && dec.ModelKey == s.advisor.ModelKey {
		model = dec.Model
	}

	client, err := o.pool.Get(model.Provider)
	if err != nil {
		return o.failedProposal(delibID, s, err)
	}

	start := time.Now()
	resp, err := client.Complete(cctx, provider.Request{
		System:    advisorSystem,
		Prompt:    prompt,
		Model:     model.ModelID,
		MaxTokens: o.cfg.MaxTokensPerCall,
		JSONOnly:  true,
	})
	latency := time.Since(start)
	if err != nil {
		return o.failedProposal(delibID, s, err)
	}

	o.writeArtifact(delibID, fmt.Sprintf("advisor_%s_response.txt", s.advisor.ID), []byte(resp.Text))

	usage := responseUsage(resp, prompt)
	incurred := cost.Estimate(model, usage.InputTokens, usage.OutputTokens)
	o.ledger.Charge(incurred)

	p := parseProposal(s.advisor.ID, resp.Text)
	p.TokenCount = usage.Total()
	p.CostUSD = incurred
	p.LatencyMs = latency.Milliseconds()
	return p
}

// failedProposal converts an advisor failure into the synthetic marker the
// synthesis call can still reason about. Zero cost: nothing completed.
func (o *Orchestrator) failedProposal(delibID string, s seat, err error) Proposal {
	o.logger.Warn("advisor call failed", "advisor", s.advisor.ID, "err", err)
	o.writeArtifact(delibID, fmt.Sprintf("advisor_%s_error.txt", s.advisor.ID), []byte(err.Error()))
	return Proposal{
		AdvisorID:     s.advisor.ID,
		Confidence:    10,
		Uncertainties: []string{fmt.Sprintf("advisor_call_failed: %v", err)},
		Assumptions:   []string{},
		Alternatives:  []Alternative{},
		Delegations:   []string{},
	}
}

// synthesize reduces the collected proposals. Unlike advisor calls a
// synthesis transport failure fails the run; the artifact trail written so
// far stays on disk for diagnosis.
func (o *Orchestrator) synthesize(ctx context.Context, delibID, task string, synModel catalog.ModelConfig, proposals []Proposal) (synthesisOutcome, Proposal, error) {
	prompt := synthesisPrompt(task, proposals)
	o.writeArtifact(delibID, "synthesis_prompt.txt", []byte(prompt))

	client, err := o.pool.Get(synModel.Provider)
	if err != nil {
		return synthesisOutcome{}, Proposal{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Complete(cctx, provider.Request{
		System:    "You synthesize multi-advisor deliberations into a single answer.",
		Prompt:    prompt,
		Model:     synModel.ModelID,
		MaxTokens: o.cfg.MaxTokensPerCall,
		JSONOnly:  true,
	})
	if err != nil {
		return synthesisOutcome{}, Proposal{}, fmt.Errorf("synthesis call: %w", err)
	}

	o.writeArtifact(delibID, "synthesis_response.txt", []byte(resp.Text))

	usage := responseUsage(resp, prompt)
	incurred := cost.Estimate(synModel, usage.InputTokens, usage.OutputTokens)
	o.ledger.Charge(incurred)

	stats := Proposal{
		TokenCount: usage.Total(),
		CostUSD:    incurred,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	return parseSynthesis(resp.Text), stats, nil
}

func (o *Orchestrator) writeArtifact(delibID, name string, data []byte) {
	if o.store == nil {
		return
	}
	if _, err := o.store.WriteArtifact(delibID, taskScope, name, data); err != nil {
		o.logger.Warn("artifact write failed", "name", name, "err", err)
	}
}

// responseUsage returns the provider-reported token counts, estimating
// from text length when the provider reported none.
func responseUsage(resp *provider.Response, prompt string) cost.Usage {
	u := cost.Usage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	if u.InputTokens == 0 {
		u.InputTokens = cost.EstimateTokens(prompt)
	}
	if u.OutputTokens == 0 {
		u.OutputTokens = cost.EstimateTokens(resp.Text)
	}
	return u
}
