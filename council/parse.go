package council

import (
	"strings"

	"github.com/AI-et-al/janus/parser"
)

// Coercion defaults for advisor output. Missing confidence reads as an
// unremarkable 50; missing arrays read as empty.
const defaultConfidence = 50

// parseProposal turns an advisor's raw text into a Proposal. The contract
// is tolerant by design: the first balanced JSON object is extracted, each
// field coerced with a safe default, and text containing no parseable
// object at all degrades to a raw-text proposal rather than failing the
// advisor.
func parseProposal(advisorID, raw string) Proposal {
	obj, err := parser.Object(raw)
	if err != nil {
		return Proposal{
			AdvisorID:     advisorID,
			ResponseText:  strings.TrimSpace(raw),
			Confidence:    defaultConfidence,
			Uncertainties: []string{},
			Assumptions:   []string{},
			Alternatives:  []Alternative{},
			Delegations:   []string{},
		}
	}

	p := Proposal{
		AdvisorID:     advisorID,
		ResponseText:  parser.String(obj, "responseText", strings.TrimSpace(raw)),
		Confidence:    clampConfidence(parser.Int(obj, "confidence", defaultConfidence)),
		Uncertainties: parser.Strings(obj, "uncertainties"),
		Assumptions:   parser.Strings(obj, "assumptions"),
		Delegations:   parser.Strings(obj, "delegations"),
		ReasoningText: parser.String(obj, "reasoningText", ""),
		Alternatives:  []Alternative{},
	}
	for _, alt := range parser.Objects(obj, "alternatives") {
		p.Alternatives = append(p.Alternatives, Alternative{
			Description:     parser.String(alt, "description", ""),
			RejectionReason: parser.String(alt, "rejectionReason", ""),
		})
	}
	return p
}

// synthesisOutcome is the parsed synthesis response.
type synthesisOutcome struct {
	Consensus     *string
	Disagreements []Disagreement
	Synthesized   string
}

// parseSynthesis coerces the synthesis response. No parseable object means
// the raw text stands in as the synthesized answer.
func parseSynthesis(raw string) synthesisOutcome {
	obj, err := parser.Object(raw)
	if err != nil {
		return synthesisOutcome{
			Disagreements: []Disagreement{},
			Synthesized:   strings.TrimSpace(raw),
		}
	}

	out := synthesisOutcome{
		Disagreements: []Disagreement{},
		Synthesized:   parser.String(obj, "synthesizedAnswer", strings.TrimSpace(raw)),
	}
	if c := parser.String(obj, "consensus", ""); c != "" {
		out.Consensus = &c
	}
	for _, d := range parser.Objects(obj, "disagreements") {
		dis := Disagreement{
			Topic:      parser.String(d, "topic", ""),
			Severity:   normalizeSeverity(parser.String(d, "severity", "")),
			Resolution: parser.String(d, "resolution", ""),
		}
		for _, pos := range parser.Objects(d, "positions") {
			dis.Positions = append(dis.Positions, Position{
				AdvisorID:  parser.String(pos, "advisorId", ""),
				Position:   parser.String(pos, "position", ""),
				Confidence: clampConfidence(parser.Int(pos, "confidence", defaultConfidence)),
			})
		}
		out.Disagreements = append(out.Disagreements, dis)
	}
	return out
}

// normalizeSeverity maps free-form severity strings to the nearest known
// value. Unknown strings read as moderate.
func normalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor", "low", "trivial":
		return SeverityMinor
	case "significant", "major", "high", "severe", "critical":
		return SeveritySignificant
	default:
		return SeverityModerate
	}
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
