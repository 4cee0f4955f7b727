// Package gemini implements the provider.Client interface over the
// official genai SDK.
package gemini

import (
	"context"

	genai "google.golang.org/genai"

	"github.com/AI-et-al/janus/cost"
	"github.com/AI-et-al/janus/provider"
)

func init() {
	provider.Register("gemini", func(cfg provider.Config) (provider.Client, error) {
		return NewClient(context.Background(), cfg)
	})
}

// Client is a thin wrapper around the official genai client.
type Client struct {
	cli *genai.Client
}

// NewClient creates a Gemini client using the Gemini API backend.
func NewClient(ctx context.Context, cfg provider.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &provider.Error{Provider: "gemini", Op: "new", Err: provider.ErrCredentialsNotFound}
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &provider.Error{Provider: "gemini", Op: "new", Err: err}
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Provider() string { return "gemini" }
func (c *Client) Close() error     { return nil }

// Complete sends one generate-content call. Gemini reports token usage in
// UsageMetadata; when it is missing the counts are estimated from text
// length and marked as such.
func (c *Client) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	if req.JSONOnly {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, &provider.Error{Provider: "gemini", Op: "complete", Err: err, Retryable: true}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &provider.Error{Provider: "gemini", Op: "complete", Err: provider.ErrEmptyResponse}
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	out := &provider.Response{Text: text, Model: req.Model}
	if meta := resp.UsageMetadata; meta != nil {
		out.InputTokens = int(meta.PromptTokenCount)
		out.OutputTokens = int(meta.CandidatesTokenCount)
	} else {
		out.InputTokens = cost.EstimateTokens(req.System + req.Prompt)
		out.OutputTokens = cost.EstimateTokens(text)
		out.Estimated = true
	}
	return out, nil
}
