package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AI-et-al/janus/provider"
	"github.com/AI-et-al/janus/provider/anthropic"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := anthropic.NewClient(provider.Config{})
	if !errors.Is(err, provider.ErrCredentialsNotFound) {
		t.Errorf("err = %v, want ErrCredentialsNotFound", err)
	}
}

func TestComplete(t *testing.T) {
	var gotBody map[string]any
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "part one"},
				{"type": "tool_use", "text": "skipped"},
				{"type": "text", "text": " part two"}
			],
			"model": "claude-sonnet-4-5",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 7}
		}`))
	}))
	defer srv.Close()

	c, err := anthropic.NewClient(provider.Config{APIKey: "ak-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	resp, err := c.Complete(context.Background(), provider.Request{
		Model:  "claude-sonnet-4-5",
		System: "be terse",
		Prompt: "hello",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Text != "part one part two" {
		t.Errorf("Text = %q, want text parts concatenated", resp.Text)
	}
	if resp.InputTokens != 30 || resp.OutputTokens != 7 {
		t.Errorf("usage = %d/%d, want 30/7", resp.InputTokens, resp.OutputTokens)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("StopReason = %q", resp.StopReason)
	}

	if gotKey != "ak-test" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header not set")
	}
	if gotBody["system"] != "be terse" {
		t.Errorf("system = %v", gotBody["system"])
	}
	// max_tokens is mandatory on this API, so the zero request value is
	// replaced with a default.
	if mt, _ := gotBody["max_tokens"].(float64); mt <= 0 {
		t.Errorf("max_tokens = %v, want positive default", gotBody["max_tokens"])
	}
}

func TestCompleteHTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"overloaded", http.StatusServiceUnavailable, provider.ErrUnavailable},
		{"rate limited", http.StatusTooManyRequests, provider.ErrRateLimited},
		{"forbidden", http.StatusForbidden, provider.ErrCredentialsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, err := anthropic.NewClient(provider.Config{APIKey: "ak-test", BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = c.Complete(context.Background(), provider.Request{Model: "m", Prompt: "p"})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v in chain", err, tt.sentinel)
			}
		})
	}
}

func TestCompleteNoTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [{"type": "tool_use", "text": ""}], "model": "m"}`))
	}))
	defer srv.Close()

	c, err := anthropic.NewClient(provider.Config{APIKey: "ak-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Complete(context.Background(), provider.Request{Model: "m", Prompt: "p"})
	if !errors.Is(err, provider.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}
