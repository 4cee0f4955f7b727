package cost

import (
	"testing"

	"github.com/AI-et-al/janus/catalog"
)

var testModel = catalog.ModelConfig{
	Key:            "test/model",
	Provider:       "test",
	ModelID:        "model-1",
	Quality:        catalog.TierBalanced,
	CostPerMTokIn:  3.0,
	CostPerMTokOut: 15.0,
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		out      int
		expected float64
	}{
		{
			name:     "zero tokens cost nothing",
			in:       0,
			out:      0,
			expected: 0,
		},
		{
			name:     "one million input tokens",
			in:       1_000_000,
			out:      0,
			expected: 3.0,
		},
		{
			name:     "one million output tokens",
			in:       0,
			out:      1_000_000,
			expected: 15.0,
		},
		{
			name:     "mixed usage",
			in:       500_000,
			out:      100_000,
			expected: 1.5 + 1.5,
		},
		{
			name:     "negative counts treated as zero",
			in:       -100,
			out:      -100,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(testModel, tt.in, tt.out)
			if got != tt.expected {
				t.Errorf("Estimate(%d, %d) = %v, want %v", tt.in, tt.out, got, tt.expected)
			}
		})
	}
}

func TestEstimateMonotonic(t *testing.T) {
	prev := Estimate(testModel, 0, 0)
	for tokens := 100; tokens <= 1000; tokens += 100 {
		got := Estimate(testModel, tokens, tokens)
		if got < prev {
			t.Fatalf("Estimate decreased: %v tokens gave %v, previous %v", tokens, got, prev)
		}
		prev = got
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "empty string",
			text:     "",
			expected: 0,
		},
		{
			name:     "four chars round to one token",
			text:     "test",
			expected: 1,
		},
		{
			name:     "eight chars",
			text:     "testtest",
			expected: 2,
		},
		{
			name:     "rounds to nearest",
			text:     "abcdef", // 6/4 = 1.5 rounds to 2
			expected: 2,
		},
		{
			name:     "counts runes not bytes",
			text:     "日本語テスト語語", // 8 runes
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.text)
			if got != tt.expected {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	u := Usage{InputTokens: 1000, OutputTokens: 500}

	if u.Total() != 1500 {
		t.Errorf("Total() = %d, want 1500", u.Total())
	}
	expected := Estimate(testModel, 1000, 500)
	if got := u.Cost(testModel); got != expected {
		t.Errorf("Cost() = %v, want %v", got, expected)
	}
}
