// Package cost converts token counts into monetary estimates using the
// per-model price table carried by the catalog.
//
// Estimation is pure and safe to call concurrently: no state, no clock,
// no network. When a provider response does not report token usage, the
// EstimateTokens heuristic (about four characters per token) stands in.
package cost

import (
	"unicode/utf8"

	"github.com/AI-et-al/janus/catalog"
)

// DefaultCharsPerToken is the character-to-token ratio used when a provider
// does not report token counts. Roughly right for English prose.
const DefaultCharsPerToken = 4.0

// Estimate returns the USD cost of a call with the given input and output
// token counts against a model's price pair. Monotonically non-decreasing
// in both counts; zero when both are zero. Negative counts are treated
// as zero.
func Estimate(m catalog.ModelConfig, inputTokens, outputTokens int) float64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	return float64(inputTokens)/1e6*m.CostPerMTokIn +
		float64(outputTokens)/1e6*m.CostPerMTokOut
}

// EstimateTokens estimates the token count of text by rune count divided by
// DefaultCharsPerToken, rounded to nearest.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(float64(utf8.RuneCountInString(text))/DefaultCharsPerToken + 0.5)
}

// Usage records the token counts actually consumed by one completed call.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Cost prices the usage against a model's price pair.
func (u Usage) Cost(m catalog.ModelConfig) float64 {
	return Estimate(m, u.InputTokens, u.OutputTokens)
}
