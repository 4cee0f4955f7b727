package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/AI-et-al/janus/cost"
	"github.com/AI-et-al/janus/parser"
	"github.com/AI-et-al/janus/provider"
	"github.com/AI-et-al/janus/rating"
	"github.com/AI-et-al/janus/router"
)

// RateProposals asks the synthesis model to grade each advisor's proposal
// 1..5 and appends the resulting peer-rating events to the store. This is
// the feed for tier learning: each event carries the proposal's observed
// cost and latency so the learner can weigh quality against price.
//
// Rating is best-effort follow-up work: a failed rating call returns an
// error but leaves the completed deliberation untouched.
func (o *Orchestrator) RateProposals(ctx context.Context, delib *Deliberation) ([]rating.Event, error) {
	if len(delib.Proposals) == 0 {
		return nil, nil
	}

	cat := o.router.Catalog()
	modelKeyByAdvisor := make(map[string]string, len(o.cfg.Advisors))
	for _, a := range o.cfg.Advisors {
		modelKeyByAdvisor[a.ID] = a.ModelKey
	}

	dec, err := o.router.Route(delib.Task, router.CategoryModelRating, router.Constraints{
		PreferredModelKey: o.cfg.SynthesisModelKey,
	})
	if err != nil {
		return nil, err
	}
	client, err := o.pool.Get(dec.Provider)
	if err != nil {
		return nil, err
	}

	prompt := ratingPrompt(delib)
	cctx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	resp, err := client.Complete(cctx, provider.Request{
		System:    "You grade advisor answers for quality. Respond only in the requested JSON shape.",
		Prompt:    prompt,
		Model:     dec.ModelID,
		MaxTokens: o.cfg.MaxTokensPerCall,
		JSONOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("rating call: %w", err)
	}
	usage := responseUsage(resp, prompt)
	o.ledger.Charge(cost.Estimate(dec.Model, usage.InputTokens, usage.OutputTokens))

	obj, err := parser.Object(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("rating response: %w", err)
	}

	var events []rating.Event
	for _, r := range parser.Objects(obj, "ratings") {
		advisorID := parser.String(r, "advisorId", "")
		modelKey := modelKeyByAdvisor[advisorID]
		if modelKey == "" {
			continue
		}
		if _, ok := cat.Get(modelKey); !ok {
			continue
		}
		score := parser.Int(r, "rating", 0)
		if score < 1 || score > 5 {
			continue
		}
		e := rating.NewEvent(delib.ID, o.cfg.SynthesisModelKey, modelKey, score)
		e.ToTaskID = taskScope
		e.Rationale = parser.String(r, "rationale", "")
		for _, p := range delib.Proposals {
			if p.AdvisorID == advisorID {
				e.CostAtTimeUSD = p.CostUSD
				e.LatencyAtMs = p.LatencyMs
				break
			}
		}
		if err := o.store.AppendRating(e); err != nil {
			return events, fmt.Errorf("append rating: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func ratingPrompt(delib *Deliberation) string {
	var b strings.Builder
	b.WriteString("Grade each advisor's proposal for the task below on a 1..5 scale ")
	b.WriteString("(5 = excellent, 1 = unusable). Respond with a single JSON object:\n")
	b.WriteString(`{"ratings":[{"advisorId":"...","rating":1,"rationale":"..."}]}`)
	b.WriteString("\n\nTASK:\n")
	b.WriteString(delib.Task)
	b.WriteString("\n\nPROPOSALS:\n")
	for _, p := range delib.Proposals {
		fmt.Fprintf(&b, "--- %s (confidence %d) ---\n%s\n", p.AdvisorID, p.Confidence, p.ResponseText)
	}
	return b.String()
}
