package parser

import (
	"errors"
	"testing"
)

func TestFirstObject(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		found    bool
	}{
		{
			name:     "bare object",
			text:     `{"a": 1}`,
			expected: `{"a": 1}`,
			found:    true,
		},
		{
			name:     "prose wrapped",
			text:     `Sure, here is the answer: {"a": 1} hope that helps!`,
			expected: `{"a": 1}`,
			found:    true,
		},
		{
			name:     "markdown fence",
			text:     "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
			found:    true,
		},
		{
			name:     "nested objects",
			text:     `{"a": {"b": {"c": 3}}}`,
			expected: `{"a": {"b": {"c": 3}}}`,
			found:    true,
		},
		{
			name:     "braces inside strings",
			text:     `{"code": "if x { return }"}`,
			expected: `{"code": "if x { return }"}`,
			found:    true,
		},
		{
			name:     "escaped quote inside string",
			text:     `{"s": "quote \" and brace }"}`,
			expected: `{"s": "quote \" and brace }"}`,
			found:    true,
		},
		{
			name:     "stray brace before real object",
			text:     `weird { prose {"a": 1}`,
			expected: `{"a": 1}`,
			found:    true,
		},
		{
			name:  "no object",
			text:  "just words",
			found: false,
		},
		{
			name:  "unbalanced",
			text:  `{"a": 1`,
			found: false,
		},
		{
			name:  "empty",
			text:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstObject(tt.text)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got != tt.expected {
				t.Errorf("FirstObject = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestObject(t *testing.T) {
	m, err := Object(`the model said {"confidence": 80, "notes": ["a"]}`)
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if m["confidence"] != float64(80) {
		t.Errorf("confidence = %v, want 80", m["confidence"])
	}

	if _, err := Object("nothing here"); !errors.Is(err, ErrNoObject) {
		t.Errorf("expected ErrNoObject, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Goal string `json:"goal"`
	}
	if err := Decode(`prefix {"goal": "ship it"} suffix`, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Goal != "ship it" {
		t.Errorf("Goal = %q, want %q", out.Goal, "ship it")
	}

	if err := Decode("no json", &out); !errors.Is(err, ErrNoObject) {
		t.Errorf("expected ErrNoObject, got %v", err)
	}
}
