// Package provider defines the unified interface for LLM API providers.
//
// Each backend (Anthropic messages, OpenAI-compatible chat completions,
// Gemini via the genai SDK) registers a factory under its provider name;
// callers construct clients through the registry without depending on any
// concrete backend:
//
//	client, err := provider.New("anthropic", provider.Config{
//	    APIKey: key,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// Implementations must be safe for concurrent use.
package provider

import "context"

// Client is the unified interface for LLM API providers.
type Client interface {
	// Complete sends a request and returns the full response.
	// The context controls cancellation and timeouts.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider name (e.g., "anthropic", "openai").
	Provider() string

	// Close releases any resources held by the client.
	Close() error
}

// Request configures one completion call. This is the provider-agnostic
// request format used across all backends.
type Request struct {
	// System sets the system message guiding the model's behavior.
	System string `json:"system,omitempty"`

	// Prompt is the user-turn content.
	Prompt string `json:"prompt"`

	// Model is the provider-specific model identifier.
	Model string `json:"model"`

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64 `json:"temperature,omitempty"`

	// JSONOnly asks the provider for a JSON response where the backend
	// supports a response MIME type or response_format knob. Backends
	// without one ignore it; callers must still parse tolerantly.
	JSONOnly bool `json:"json_only,omitempty"`
}

// Response is one completed call. Token counts come from the provider when
// reported and are estimated otherwise; Estimated marks the difference.
type Response struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Estimated    bool   `json:"estimated,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
}
