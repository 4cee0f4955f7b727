// Package parser extracts structured data from free-text LLM output.
//
// Advisors and plan-writing models are asked for JSON but routinely wrap it
// in prose or markdown fences. This package's contract is deliberately
// tolerant: FirstObject locates the first balanced {...} object by
// bracket-depth scanning, and the coercion helpers apply documented
// per-field defaults instead of failing on missing or mistyped values.
// This behavior is load-bearing for the council protocol; callers that
// need strict validation (the executor) decode the extracted object into
// a typed struct and reject deviations themselves.
package parser

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject indicates the text contains no balanced JSON object.
var ErrNoObject = errors.New("no JSON object found in text")

// FirstObject returns the first balanced {...} object in text. The scan
// respects string literals and escape sequences, so braces inside strings
// do not affect nesting depth. Markdown fences and surrounding prose are
// tolerated because the scan simply starts at the first '{'.
//
// If the balanced slice is not valid JSON the scan resumes at the next
// opening brace, so a stray "{" in prose before the real object does not
// hide it.
func FirstObject(text string) (string, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		end, ok := matchObject(text, start)
		if ok {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			return "", false
		}
		start += 1 + next
	}
	return "", false
}

// matchObject returns the index of the brace closing the object opened at
// start, scanning with string/escape awareness.
func matchObject(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// Object extracts the first balanced object and unmarshals it into a loose
// map for field-by-field coercion.
func Object(text string) (map[string]any, error) {
	raw, ok := FirstObject(text)
	if !ok {
		return nil, ErrNoObject
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode extracts the first balanced object and unmarshals it into v.
// Unlike Object it preserves json.Unmarshal's type strictness, which makes
// it the right entry point for contracts where deviation must fail.
func Decode(text string, v any) error {
	raw, ok := FirstObject(text)
	if !ok {
		return ErrNoObject
	}
	return json.Unmarshal([]byte(raw), v)
}
