// Package truncate bounds text to an estimated token budget. It backs
// the prompt builders: caller-supplied prior context can be arbitrarily
// large, and embedding it unbounded would blow up call cost estimates.
//
// Token counts use the same heuristic as cost estimation, so text that
// passes through here fits the budgets the router prices against.
package truncate

import (
	"strings"

	"github.com/AI-et-al/janus/cost"
)

const (
	endMarker    = "..."
	middleMarker = "\n...[content truncated]...\n"
)

// End keeps the start of text, cutting from the end until it fits
// maxTokens. Reports whether anything was removed.
func End(text string, maxTokens int) (string, bool) {
	if cost.EstimateTokens(text) <= maxTokens {
		return text, false
	}
	target := maxTokens - cost.EstimateTokens(endMarker)
	if target <= 0 {
		return endMarker, true
	}
	runes := []rune(text)
	keep := runesWithin(runes, target)
	if keep == 0 {
		return endMarker, true
	}
	return string(runes[:keep]) + endMarker, true
}

// Middle keeps both ends of text, cutting from the middle until it fits
// maxTokens. Useful for logs and transcripts where the head carries the
// setup and the tail carries the latest state.
func Middle(text string, maxTokens int) (string, bool) {
	if cost.EstimateTokens(text) <= maxTokens {
		return text, false
	}
	target := maxTokens - cost.EstimateTokens(middleMarker)
	if target <= 0 {
		return strings.TrimSpace(middleMarker), true
	}

	runes := []rune(text)
	head := runesWithin(runes, target/2)
	tailStart := len(runes) - head
	if tailStart < head {
		tailStart = head
	}

	var b strings.Builder
	b.WriteString(string(runes[:head]))
	b.WriteString(middleMarker)
	if tailStart < len(runes) {
		b.WriteString(string(runes[tailStart:]))
	}
	return b.String(), true
}

// runesWithin binary-searches the longest prefix of runes whose
// estimated token count stays within maxTokens.
func runesWithin(runes []rune, maxTokens int) int {
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		if cost.EstimateTokens(string(runes[:mid])) <= maxTokens {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low
}
