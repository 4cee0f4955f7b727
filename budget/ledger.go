// Package budget tracks the process-wide spending ceiling shared by every
// routed call.
package budget

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExceeded is returned when a plan's estimated cost cannot fit the
// remaining budget even after dropping optional participants. It is always
// surfaced to the caller and never silently retried.
var ErrExceeded = errors.New("budget exceeded")

// ExceededError carries the estimate that failed the budget gate.
type ExceededError struct {
	EstimatedUSD float64
	RemainingUSD float64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: estimated $%.4f, remaining $%.4f", e.EstimatedUSD, e.RemainingUSD)
}

// Unwrap lets errors.Is(err, ErrExceeded) match.
func (e *ExceededError) Unwrap() error { return ErrExceeded }

// State is a point-in-time snapshot of the ledger.
type State struct {
	MonthlyLimitUSD float64 `json:"monthlyLimitUsd"`
	RemainingUSD    float64 `json:"remainingUsd"`
}

// Ledger is the single mutable shared resource in the system: the running
// total of remaining spend for the period. Callers check the remaining
// amount before a call and charge the actually incurred cost after the call
// completes. Check and charge are deliberately not atomic across concurrent
// flows: two callers may pass the same check before either charges, which
// permits a bounded overshoot. Remaining may go negative to signal overrun;
// it never silently resets.
type Ledger struct {
	mu        sync.Mutex
	limit     float64
	remaining float64
}

// NewLedger creates a ledger with the full monthly limit remaining.
func NewLedger(monthlyLimitUSD float64) *Ledger {
	return &Ledger{limit: monthlyLimitUSD, remaining: monthlyLimitUSD}
}

// Restore creates a ledger from a persisted state, preserving whatever was
// already spent this period.
func Restore(s State) *Ledger {
	return &Ledger{limit: s.MonthlyLimitUSD, remaining: s.RemainingUSD}
}

// Limit returns the monthly limit in USD.
func (l *Ledger) Limit() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// Remaining returns the remaining spend in USD. May be negative.
func (l *Ledger) Remaining() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// CanAfford reports whether an estimated cost fits the remaining budget.
func (l *Ledger) CanAfford(estimatedUSD float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return estimatedUSD <= l.remaining
}

// Charge deducts an incurred cost and returns the new remaining amount.
// Charges are applied after a call completes, never preemptively.
func (l *Ledger) Charge(incurredUSD float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remaining -= incurredUSD
	return l.remaining
}

// Snapshot returns the current state for persistence.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{MonthlyLimitUSD: l.limit, RemainingUSD: l.remaining}
}
