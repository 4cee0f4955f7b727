// Package anthropic implements the provider.Client interface over the
// Anthropic Messages API.
//
// See: https://docs.anthropic.com/en/api/messages
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AI-et-al/janus/provider"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1/messages"
	apiVersion     = "2023-06-01"
	defaultMaxTok  = 4096
)

func init() {
	provider.Register("anthropic", func(cfg provider.Config) (provider.Client, error) {
		return NewClient(cfg)
	})
}

// Client calls the Anthropic Messages API.
type Client struct {
	cfg     provider.Config
	baseURL string
}

// NewClient creates an Anthropic client. The API key is required.
func NewClient(cfg provider.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &provider.Error{Provider: "anthropic", Op: "new", Err: provider.ErrCredentialsNotFound}
	}
	cfg = cfg.WithDefaults()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{cfg: cfg, baseURL: baseURL}, nil
}

func (c *Client) Provider() string { return "anthropic" }
func (c *Client) Close() error     { return nil }

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one messages call and returns the concatenated text
// content with the reported token usage.
func (c *Client) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTok
	}
	body := messagesRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &provider.Error{Provider: "anthropic", Op: "complete", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &provider.Error{Provider: "anthropic", Op: "complete", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &provider.Error{Provider: "anthropic", Op: "complete", Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{Provider: "anthropic", Op: "complete", Err: err, Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.StatusError("anthropic", resp.StatusCode)
	}

	var out messagesResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &provider.Error{Provider: "anthropic", Op: "complete", Err: fmt.Errorf("decode response: %w", err)}
	}
	var text string
	for _, part := range out.Content {
		if part.Type == "text" {
			text += part.Text
		}
	}
	if text == "" {
		return nil, &provider.Error{Provider: "anthropic", Op: "complete", Err: provider.ErrEmptyResponse}
	}
	return &provider.Response{
		Text:         text,
		Model:        out.Model,
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
		StopReason:   out.StopReason,
	}, nil
}
