package budget

import (
	"errors"
	"sync"
	"testing"
)

func TestNewLedger(t *testing.T) {
	l := NewLedger(25)

	if l.Limit() != 25 {
		t.Errorf("Limit() = %v, want 25", l.Limit())
	}
	if l.Remaining() != 25 {
		t.Errorf("Remaining() = %v, want 25", l.Remaining())
	}
}

func TestCanAfford(t *testing.T) {
	l := NewLedger(1.0)

	tests := []struct {
		name     string
		estimate float64
		expected bool
	}{
		{"well under", 0.5, true},
		{"exactly remaining", 1.0, true},
		{"just over", 1.0001, false},
		{"free call", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.CanAfford(tt.estimate); got != tt.expected {
				t.Errorf("CanAfford(%v) = %v, want %v", tt.estimate, got, tt.expected)
			}
		})
	}
}

func TestChargeGoesNegative(t *testing.T) {
	l := NewLedger(0.10)

	got := l.Charge(0.25)
	if got != -0.15 {
		t.Errorf("Charge(0.25) = %v, want -0.15", got)
	}
	if l.CanAfford(0) {
		t.Error("expected CanAfford(0) to be false on an overrun ledger")
	}
}

func TestRestore(t *testing.T) {
	l := Restore(State{MonthlyLimitUSD: 25, RemainingUSD: 3.5})

	if l.Limit() != 25 {
		t.Errorf("Limit() = %v, want 25", l.Limit())
	}
	if l.Remaining() != 3.5 {
		t.Errorf("Remaining() = %v, want 3.5", l.Remaining())
	}

	snap := l.Snapshot()
	if snap.MonthlyLimitUSD != 25 || snap.RemainingUSD != 3.5 {
		t.Errorf("Snapshot() = %+v, want limit 25 remaining 3.5", snap)
	}
}

func TestConcurrentCharges(t *testing.T) {
	l := NewLedger(1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Charge(1)
		}()
	}
	wg.Wait()

	if l.Remaining() != 900 {
		t.Errorf("Remaining() = %v after 100 unit charges, want 900", l.Remaining())
	}
}

func TestExceededError(t *testing.T) {
	err := &ExceededError{EstimatedUSD: 0.5, RemainingUSD: 0.1}

	if !errors.Is(err, ErrExceeded) {
		t.Error("expected errors.Is(err, ErrExceeded) to hold")
	}
	want := "budget exceeded: estimated $0.5000, remaining $0.1000"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
