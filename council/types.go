// Package council runs the multi-advisor deliberation protocol: several
// models answer the same task in parallel, and a synthesis call reduces
// their proposals into a consensus/disagreement summary.
//
// The protocol degrades instead of aborting: advisors whose provider has
// no credentials are dropped up front, advisors that fail in flight become
// low-confidence synthetic proposals, and when the plan cannot fit the
// remaining budget the costliest advisors are shed one at a time before
// any call is made.
package council

import (
	"time"
)

// Advisor binds one deliberation seat to a model key.
type Advisor struct {
	ID       string `json:"id" toml:"id" yaml:"id"`
	ModelKey string `json:"model_key" toml:"model_key" yaml:"model_key"`
}

// Config tunes a deliberation.
type Config struct {
	// Advisors is the fixed roster. Advisors whose model key is unknown
	// fail the run; advisors whose provider lacks credentials are dropped.
	Advisors []Advisor `json:"advisors" toml:"advisors" yaml:"advisors"`

	// SynthesisModelKey names the model for the final synthesis call.
	// Unlike advisors it is required: a missing key or missing provider
	// credentials fail the run up front.
	SynthesisModelKey string `json:"synthesis_model_key" toml:"synthesis_model_key" yaml:"synthesis_model_key"`

	// CallTimeout bounds each advisor and synthesis call. Expiry is
	// treated like any other advisor failure. Default 120s.
	CallTimeout time.Duration `json:"call_timeout" toml:"call_timeout" yaml:"call_timeout"`

	// MaxTokensPerCall caps each call's response. Default 2000.
	MaxTokensPerCall int `json:"max_tokens_per_call" toml:"max_tokens_per_call" yaml:"max_tokens_per_call"`
}

// WithDefaults returns a copy with zero values filled in.
func (c Config) WithDefaults() Config {
	if c.CallTimeout <= 0 {
		c.CallTimeout = 120 * time.Second
	}
	if c.MaxTokensPerCall <= 0 {
		c.MaxTokensPerCall = 2000
	}
	return c
}

// Proposal is one advisor's structured answer.
type Proposal struct {
	AdvisorID     string        `json:"advisorId"`
	ResponseText  string        `json:"responseText"`
	Confidence    int           `json:"confidence"` // 0..100
	Uncertainties []string      `json:"uncertainties"`
	Assumptions   []string      `json:"assumptions"`
	Alternatives  []Alternative `json:"alternatives"`
	Delegations   []string      `json:"delegations"`
	ReasoningText string        `json:"reasoningText,omitempty"`
	TokenCount    int           `json:"tokenCount"`
	CostUSD       float64       `json:"costUsd"`
	LatencyMs     int64         `json:"latencyMs"`
}

// Alternative is an approach the advisor considered and rejected.
type Alternative struct {
	Description     string `json:"description"`
	RejectionReason string `json:"rejectionReason"`
}

// Severity grades a disagreement.
type Severity string

// Disagreement severities.
const (
	SeverityMinor       Severity = "minor"
	SeverityModerate    Severity = "moderate"
	SeveritySignificant Severity = "significant"
)

// Position is one advisor's stance inside a disagreement.
type Position struct {
	AdvisorID  string `json:"advisorId"`
	Position   string `json:"position"`
	Confidence int    `json:"confidence"`
}

// Disagreement is a topic the advisors did not converge on.
type Disagreement struct {
	Topic      string     `json:"topic"`
	Positions  []Position `json:"positions"`
	Severity   Severity   `json:"severity"`
	Resolution string     `json:"resolution,omitempty"`
}

// Deliberation is one completed council run. Immutable after creation.
type Deliberation struct {
	ID            string         `json:"id"`
	Task          string         `json:"task"`
	Proposals     []Proposal     `json:"proposals"`
	Disagreements []Disagreement `json:"disagreements"`
	Consensus     *string        `json:"consensusText"`
	Synthesized   string         `json:"synthesizedAnswer"`
	TotalTokens   int            `json:"totalTokens"`
	TotalCostUSD  float64        `json:"totalCostUsd"`
	Timestamp     time.Time      `json:"timestamp"`
}
