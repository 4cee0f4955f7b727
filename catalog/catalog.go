// Package catalog defines the routable model catalog: which models exist,
// which provider serves each one, what they cost per million tokens, and
// which quality tier they currently occupy.
//
// A catalog is loaded from an external JSON file at process start and may be
// refreshed at any time; callers that cache a catalog must treat a refresh as
// invalidating their copy. Learned tiers from a TierSnapshot override the
// static defaults model by model.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelConfig describes one routable model. Identity is Key, unique within
// a catalog. The record is immutable; tier overrides produce a new copy.
type ModelConfig struct {
	Key            string  `json:"key"`
	Provider       string  `json:"provider"`
	ModelID        string  `json:"modelId"`
	Quality        Tier    `json:"qualityTier"`
	CostPerMTokIn  float64 `json:"costPerMillionTokensIn"`
	CostPerMTokOut float64 `json:"costPerMillionTokensOut"`
}

// Validate checks the fields a router depends on.
func (m ModelConfig) Validate() error {
	if m.Key == "" {
		return fmt.Errorf("model config missing key")
	}
	if m.Provider == "" {
		return fmt.Errorf("model %q: missing provider", m.Key)
	}
	if m.ModelID == "" {
		return fmt.Errorf("model %q: missing modelId", m.Key)
	}
	if !m.Quality.Valid() {
		return fmt.Errorf("model %q: unknown quality tier %q", m.Key, m.Quality)
	}
	if m.CostPerMTokIn < 0 || m.CostPerMTokOut < 0 {
		return fmt.Errorf("model %q: negative price", m.Key)
	}
	return nil
}

// Catalog is an ordered list of model configurations plus a provider
// preference ordering used to break cost ties during routing.
type Catalog struct {
	ProviderPreference []string      `json:"providerPreference"`
	Models             []ModelConfig `json:"models"`
}

// Get returns the model with the given key.
func (c Catalog) Get(key string) (ModelConfig, bool) {
	for _, m := range c.Models {
		if m.Key == key {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// Keys returns all model keys in catalog order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		keys = append(keys, m.Key)
	}
	return keys
}

// ProviderRank returns a provider's position in the preference ordering.
// Providers absent from the ordering rank after all listed ones.
func (c Catalog) ProviderRank(provider string) int {
	for i, p := range c.ProviderPreference {
		if p == provider {
			return i
		}
	}
	return len(c.ProviderPreference)
}

// Validate checks every model and rejects duplicate keys.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Key] {
			return fmt.Errorf("duplicate model key %q", m.Key)
		}
		seen[m.Key] = true
	}
	return nil
}

// WithTiers returns a copy of the catalog with each model's tier replaced by
// the snapshot's value for its key. Models absent from the snapshot keep
// their static tier. A nil snapshot returns the catalog unchanged.
func (c Catalog) WithTiers(snap *TierSnapshot) Catalog {
	if snap == nil || len(snap.Tiers) == 0 {
		return c
	}
	out := Catalog{
		ProviderPreference: c.ProviderPreference,
		Models:             make([]ModelConfig, len(c.Models)),
	}
	copy(out.Models, c.Models)
	for i, m := range out.Models {
		if t, ok := snap.Tiers[m.Key]; ok && t.Valid() {
			out.Models[i].Quality = t
		}
	}
	return out
}

// Load reads a catalog from a JSON file. A missing file falls back to the
// built-in default catalog rather than failing.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// Save writes the catalog as indented JSON.
func (c Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Default returns the built-in catalog used when no catalog file exists.
// Prices are USD per million tokens.
func Default() Catalog {
	return Catalog{
		ProviderPreference: []string{"anthropic", "openai", "gemini", "groq"},
		Models: []ModelConfig{
			{
				Key:            "anthropic/claude-opus",
				Provider:       "anthropic",
				ModelID:        "claude-opus-4-20250514",
				Quality:        TierQuality,
				CostPerMTokIn:  15.0,
				CostPerMTokOut: 75.0,
			},
			{
				Key:            "anthropic/claude-sonnet",
				Provider:       "anthropic",
				ModelID:        "claude-sonnet-4-20250514",
				Quality:        TierBalanced,
				CostPerMTokIn:  3.0,
				CostPerMTokOut: 15.0,
			},
			{
				Key:            "anthropic/claude-haiku",
				Provider:       "anthropic",
				ModelID:        "claude-3-5-haiku-20241022",
				Quality:        TierFast,
				CostPerMTokIn:  0.8,
				CostPerMTokOut: 4.0,
			},
			{
				Key:            "openai/gpt-5",
				Provider:       "openai",
				ModelID:        "gpt-5",
				Quality:        TierQuality,
				CostPerMTokIn:  10.0,
				CostPerMTokOut: 30.0,
			},
			{
				Key:            "openai/gpt-5-mini",
				Provider:       "openai",
				ModelID:        "gpt-5-mini",
				Quality:        TierBalanced,
				CostPerMTokIn:  1.0,
				CostPerMTokOut: 4.0,
			},
			{
				Key:            "gemini/gemini-pro",
				Provider:       "gemini",
				ModelID:        "gemini-2.5-pro",
				Quality:        TierQuality,
				CostPerMTokIn:  1.25,
				CostPerMTokOut: 10.0,
			},
			{
				Key:            "gemini/gemini-flash",
				Provider:       "gemini",
				ModelID:        "gemini-2.5-flash",
				Quality:        TierFast,
				CostPerMTokIn:  0.3,
				CostPerMTokOut: 2.5,
			},
			{
				Key:            "groq/llama-70b",
				Provider:       "groq",
				ModelID:        "llama-3.3-70b-versatile",
				Quality:        TierFast,
				CostPerMTokIn:  0.59,
				CostPerMTokOut: 0.79,
			},
		},
	}
}
