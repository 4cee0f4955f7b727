// Package openai implements the provider.Client interface over the OpenAI
// chat completions API. The same wire format is served by several hosts;
// the package registers both "openai" and "groq", differing only in the
// default base URL.
//
// See: https://platform.openai.com/docs/api-reference/chat
package openai

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
	openaiBaseURL = "https://api.openai.com/v1/chat/completions"
	groqBaseURL   = "https://api.groq.com/openai/v1/chat/completions"
)

func init() {
	provider.Register("openai", func(cfg provider.Config) (provider.Client, error) {
		return NewClient("openai", openaiBaseURL, cfg)
	})
	provider.Register("groq", func(cfg provider.Config) (provider.Client, error) {
		return NewClient("groq", groqBaseURL, cfg)
	})
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	name    string
	cfg     provider.Config
	baseURL string
}

// NewClient creates a chat-completions client for the named provider.
func NewClient(name, defaultURL string, cfg provider.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &provider.Error{Provider: name, Op: "new", Err: provider.ErrCredentialsNotFound}
	}
	cfg = cfg.WithDefaults()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	return &Client{name: name, cfg: cfg, baseURL: baseURL}, nil
}

func (c *Client) Provider() string { return c.name }
func (c *Client) Close() error     { return nil }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_completion_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completions call.
func (c *Client) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	var msgs []chatMessage
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONOnly {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &provider.Error{Provider: c.name, Op: "complete", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &provider.Error{Provider: c.name, Op: "complete", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &provider.Error{Provider: c.name, Op: "complete", Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{Provider: c.name, Op: "complete", Err: err, Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.StatusError(c.name, resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &provider.Error{Provider: c.name, Op: "complete", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, &provider.Error{Provider: c.name, Op: "complete", Err: provider.ErrEmptyResponse}
	}
	return &provider.Response{
		Text:         out.Choices[0].Message.Content,
		Model:        out.Model,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
		StopReason:   out.Choices[0].FinishReason,
	}, nil
}
