package council

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/provider"
	"github.com/AI-et-al/janus/router"
	"github.com/AI-et-al/janus/store"
)

// fakeClient satisfies provider.Client with a programmable response.
type fakeClient struct {
	name    string
	respond func(req provider.Request) (*provider.Response, error)

	mu    sync.Mutex
	calls []provider.Request
}

func (f *fakeClient) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeClient) Provider() string { return f.name }
func (f *fakeClient) Close() error     { return nil }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// councilCatalog prices advisor models at exactly $0.04 per call estimate
// (2000 assumed output tokens at $20/M, free input) and the synthesis
// model at exactly $0.05.
func councilCatalog() catalog.Catalog {
	return catalog.Catalog{
		ProviderPreference: []string{"adv", "syn"},
		Models: []catalog.ModelConfig{
			{Key: "adv/a1", Provider: "adv", ModelID: "a1", Quality: catalog.TierBalanced, CostPerMTokOut: 20},
			{Key: "adv/a2", Provider: "adv", ModelID: "a2", Quality: catalog.TierBalanced, CostPerMTokOut: 20},
			{Key: "adv/a3", Provider: "adv", ModelID: "a3", Quality: catalog.TierBalanced, CostPerMTokOut: 20},
			{Key: "syn/s", Provider: "syn", ModelID: "s", Quality: catalog.TierQuality, CostPerMTokOut: 25},
		},
	}
}

func councilConfig() Config {
	return Config{
		Advisors: []Advisor{
			{ID: "alpha", ModelKey: "adv/a1"},
			{ID: "beta", ModelKey: "adv/a2"},
			{ID: "gamma", ModelKey: "adv/a3"},
		},
		SynthesisModelKey: "syn/s",
	}
}

func advisorJSON(model string) string {
	return `{"responseText": "answer from ` + model + `", "confidence": 70, "uncertainties": [], "assumptions": [], "alternatives": [], "delegations": []}`
}

const synthesisJSON = `{"consensus": "agreed", "synthesizedAnswer": "final answer", "disagreements": []}`

func newTestOrchestrator(t *testing.T, ledger *budget.Ledger, cfg Config, adv, syn *fakeClient) *Orchestrator {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	pool := provider.NewPool(nil)
	pool.Put("adv", adv)
	pool.Put("syn", syn)

	r := router.New(councilCatalog(), ledger, router.WithCredentials(pool.Credentials()))
	return New(r, pool, ledger, fs, cfg)
}

func TestDeliberate(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model), Model: req.Model}, nil
	}}
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: synthesisJSON, Model: req.Model}, nil
	}}

	ledger := budget.NewLedger(10)
	o := newTestOrchestrator(t, ledger, councilConfig(), adv, syn)

	delib, err := o.Deliberate(context.Background(), "design a cache", "")
	require.NoError(t, err)
	require.NotNil(t, delib)

	assert.Len(t, delib.Proposals, 3)
	for _, p := range delib.Proposals {
		assert.Equal(t, 70, p.Confidence)
		assert.Contains(t, p.ResponseText, "answer from")
		assert.Greater(t, p.CostUSD, 0.0)
	}
	require.NotNil(t, delib.Consensus)
	assert.Equal(t, "agreed", *delib.Consensus)
	assert.Equal(t, "final answer", delib.Synthesized)
	assert.Greater(t, delib.TotalCostUSD, 0.0)
	assert.Less(t, ledger.Remaining(), 10.0, "advisor and synthesis calls must be charged")
	assert.Equal(t, 1, syn.callCount())
}

func TestDeliberateAdvisorFailureDegrades(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		if req.Model == "a2" {
			return nil, errors.New("connection reset")
		}
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: synthesisJSON}, nil
	}}

	o := newTestOrchestrator(t, budget.NewLedger(10), councilConfig(), adv, syn)

	delib, err := o.Deliberate(context.Background(), "design a cache", "")
	require.NoError(t, err)
	require.Len(t, delib.Proposals, 3)

	var failed *Proposal
	for i := range delib.Proposals {
		if delib.Proposals[i].AdvisorID == "beta" {
			failed = &delib.Proposals[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, 10, failed.Confidence)
	require.Len(t, failed.Uncertainties, 1)
	assert.Contains(t, failed.Uncertainties[0], "advisor_call_failed")
	assert.Zero(t, failed.CostUSD, "a failed call must not be charged")
}

func TestDeliberateSynthesisFailureKeepsAdvisorCharges(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return nil, errors.New("connection reset")
	}}

	ledger := budget.NewLedger(10)
	o := newTestOrchestrator(t, ledger, councilConfig(), adv, syn)

	delib, err := o.Deliberate(context.Background(), "design a cache", "")
	require.Error(t, err)
	assert.Nil(t, delib)

	assert.Equal(t, 3, adv.callCount())
	assert.Less(t, ledger.Remaining(), 10.0,
		"advisor charges must survive a failed synthesis")
}

func TestDeliberateFitsBudgetByDroppingCostliest(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: synthesisJSON}, nil
	}}

	// Three advisors at $0.04 plus $0.05 synthesis against $0.10: the
	// combined estimate does not fit, and shedding one advisor brings the
	// advisor total to $0.08.
	o := newTestOrchestrator(t, budget.NewLedger(0.10), councilConfig(), adv, syn)

	delib, err := o.Deliberate(context.Background(), "design a cache", "")
	require.NoError(t, err)

	assert.Len(t, delib.Proposals, 2, "exactly one advisor should be dropped")
	assert.Equal(t, 2, adv.callCount())
	assert.Equal(t, 1, syn.callCount())
}

func TestDeliberateAbortsWhenMinimalRosterUnaffordable(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: synthesisJSON}, nil
	}}

	o := newTestOrchestrator(t, budget.NewLedger(0.03), councilConfig(), adv, syn)

	_, err := o.Deliberate(context.Background(), "design a cache", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, budget.ErrExceeded)

	var exceeded *budget.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 0.03, exceeded.RemainingUSD)

	assert.Zero(t, adv.callCount(), "no call may happen after a budget abort")
	assert.Zero(t, syn.callCount())
}

func TestDeliberateDropsUncredentialedAdvisors(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: synthesisJSON}, nil
	}}

	cat := councilCatalog()
	cat.Models = append(cat.Models, catalog.ModelConfig{
		Key: "other/x", Provider: "other", ModelID: "x", Quality: catalog.TierBalanced, CostPerMTokOut: 20,
	})

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	pool := provider.NewPool(nil)
	pool.Put("adv", adv)
	pool.Put("syn", syn)

	cfg := councilConfig()
	cfg.Advisors = append(cfg.Advisors, Advisor{ID: "delta", ModelKey: "other/x"})

	ledger := budget.NewLedger(10)
	r := router.New(cat, ledger, router.WithCredentials(pool.Credentials()))
	o := New(r, pool, ledger, fs, cfg)

	delib, err := o.Deliberate(context.Background(), "design a cache", "")
	require.NoError(t, err)

	assert.Len(t, delib.Proposals, 3)
	for _, p := range delib.Proposals {
		assert.NotEqual(t, "delta", p.AdvisorID)
	}
}

func TestDeliberateUnknownModelKey(t *testing.T) {
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: synthesisJSON}, nil
	}}
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}

	cfg := councilConfig()
	cfg.Advisors[1].ModelKey = "ghost/model"
	o := newTestOrchestrator(t, budget.NewLedger(10), cfg, adv, syn)

	_, err := o.Deliberate(context.Background(), "design a cache", "")
	assert.ErrorIs(t, err, ErrUnknownModelKey)
}

func TestDeliberateSynthesisCredentialsRequired(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	pool := provider.NewPool(nil)
	pool.Put("adv", adv)
	// No synthesis provider credentials.

	ledger := budget.NewLedger(10)
	r := router.New(councilCatalog(), ledger, router.WithCredentials(pool.Credentials()))
	o := New(r, pool, ledger, fs, councilConfig())

	_, err = o.Deliberate(context.Background(), "design a cache", "")
	assert.ErrorIs(t, err, provider.ErrCredentialsNotFound)
}

func TestRateProposals(t *testing.T) {
	adv := &fakeClient{name: "adv", respond: func(req provider.Request) (*provider.Response, error) {
		return &provider.Response{Text: advisorJSON(req.Model)}, nil
	}}
	ratingJSON := `{"ratings": [
		{"advisorId": "alpha", "rating": 5, "rationale": "thorough"},
		{"advisorId": "beta", "rating": 2, "rationale": "vague"},
		{"advisorId": "nobody", "rating": 4},
		{"advisorId": "gamma", "rating": 9}
	]}`
	syn := &fakeClient{name: "syn", respond: func(req provider.Request) (*provider.Response, error) {
		if strings.Contains(req.Prompt, "Grade each advisor") {
			return &provider.Response{Text: ratingJSON}, nil
		}
		return &provider.Response{Text: synthesisJSON}, nil
	}}

	ledger := budget.NewLedger(10)
	o := newTestOrchestrator(t, ledger, councilConfig(), adv, syn)

	delib, err := o.Deliberate(context.Background(), "design a cache", "")
	require.NoError(t, err)

	events, err := o.RateProposals(context.Background(), delib)
	require.NoError(t, err)

	// The unknown advisor and the out-of-range rating are dropped.
	require.Len(t, events, 2)
	assert.Equal(t, "adv/a1", events[0].ToModelKey)
	assert.Equal(t, 5, events[0].Rating)
	assert.Equal(t, delib.ID, events[0].SessionID)
	assert.Greater(t, events[0].CostAtTimeUSD, 0.0)
	assert.Equal(t, "adv/a2", events[1].ToModelKey)

	stored, err := o.store.ListRatings()
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
