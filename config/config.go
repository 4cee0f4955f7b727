// Package config loads the process configuration from a TOML or YAML
// file and converts it into the typed settings the other packages take.
// The core packages never read the environment themselves; ApplyEnv is
// the single, explicit point where well-known variables are folded in.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/AI-et-al/janus/council"
	"github.com/AI-et-al/janus/executor"
	"github.com/AI-et-al/janus/rating"
)

// ProviderConfig holds the credentials for one provider backend.
type ProviderConfig struct {
	APIKey  string `json:"api_key" toml:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" toml:"base_url" yaml:"base_url"`
}

// StoreConfig locates the on-disk context store.
type StoreConfig struct {
	Root string `json:"root" toml:"root" yaml:"root"`
}

// BudgetConfig sets the monthly spend ceiling.
type BudgetConfig struct {
	MonthlyLimitUSD float64 `json:"monthly_limit_usd" toml:"monthly_limit_usd" yaml:"monthly_limit_usd"`
}

// RouterConfig tunes model selection.
type RouterConfig struct {
	CostOptimization bool `json:"cost_optimization" toml:"cost_optimization" yaml:"cost_optimization"`
	MaxOutputTokens  int  `json:"max_output_tokens" toml:"max_output_tokens" yaml:"max_output_tokens"`
}

// CouncilConfig mirrors council.Config with file-friendly field types.
type CouncilConfig struct {
	Advisors           []council.Advisor `json:"advisors" toml:"advisors" yaml:"advisors"`
	SynthesisModelKey  string            `json:"synthesis_model_key" toml:"synthesis_model_key" yaml:"synthesis_model_key"`
	CallTimeoutSeconds int               `json:"call_timeout_seconds" toml:"call_timeout_seconds" yaml:"call_timeout_seconds"`
	MaxTokensPerCall   int               `json:"max_tokens_per_call" toml:"max_tokens_per_call" yaml:"max_tokens_per_call"`
}

// Council converts to the orchestrator's config type.
func (c CouncilConfig) Council() council.Config {
	return council.Config{
		Advisors:          c.Advisors,
		SynthesisModelKey: c.SynthesisModelKey,
		CallTimeout:       time.Duration(c.CallTimeoutSeconds) * time.Second,
		MaxTokensPerCall:  c.MaxTokensPerCall,
	}.WithDefaults()
}

// ExecutorConfig mirrors executor.Policy and executor.Config. Empty list
// fields fall back to the defaults instead of allowing nothing.
type ExecutorConfig struct {
	RepoRoot              string   `json:"repo_root" toml:"repo_root" yaml:"repo_root"`
	MaxActions            int      `json:"max_actions" toml:"max_actions" yaml:"max_actions"`
	MaxWriteBytes         int      `json:"max_write_bytes" toml:"max_write_bytes" yaml:"max_write_bytes"`
	MaxCommandTimeoutSecs int      `json:"max_command_timeout_seconds" toml:"max_command_timeout_seconds" yaml:"max_command_timeout_seconds"`
	AllowedCommands       []string `json:"allowed_commands" toml:"allowed_commands" yaml:"allowed_commands"`
	AllowedGitSubcommands []string `json:"allowed_git_subcommands" toml:"allowed_git_subcommands" yaml:"allowed_git_subcommands"`
	DeniedFragments       []string `json:"denied_fragments" toml:"denied_fragments" yaml:"denied_fragments"`
	PlanMaxTokens         int      `json:"plan_max_tokens" toml:"plan_max_tokens" yaml:"plan_max_tokens"`
}

// Policy converts to the sandbox safety envelope.
func (c ExecutorConfig) Policy() executor.Policy {
	p := executor.DefaultPolicy(c.RepoRoot)
	if c.MaxActions > 0 {
		p.MaxActions = c.MaxActions
	}
	if c.MaxWriteBytes > 0 {
		p.MaxWriteBytes = c.MaxWriteBytes
	}
	if c.MaxCommandTimeoutSecs > 0 {
		p.MaxCommandTimeout = time.Duration(c.MaxCommandTimeoutSecs) * time.Second
	}
	if len(c.AllowedCommands) > 0 {
		p.AllowedCommands = c.AllowedCommands
	}
	if len(c.AllowedGitSubcommands) > 0 {
		p.AllowedGitSubcommands = c.AllowedGitSubcommands
	}
	if len(c.DeniedFragments) > 0 {
		p.DeniedFragments = c.DeniedFragments
	}
	return p
}

// Sandbox converts to the sandbox call settings.
func (c ExecutorConfig) Sandbox() executor.Config {
	return executor.Config{PlanMaxTokens: c.PlanMaxTokens}.WithDefaults()
}

// RatingConfig mirrors rating.LearnerConfig.
type RatingConfig struct {
	HalfLifeDays   float64 `json:"half_life_days" toml:"half_life_days" yaml:"half_life_days"`
	MinRatings     int     `json:"min_ratings" toml:"min_ratings" yaml:"min_ratings"`
	MinEligible    int     `json:"min_eligible" toml:"min_eligible" yaml:"min_eligible"`
	QualityMinAvg  float64 `json:"quality_min_avg" toml:"quality_min_avg" yaml:"quality_min_avg"`
	BalancedMinAvg float64 `json:"balanced_min_avg" toml:"balanced_min_avg" yaml:"balanced_min_avg"`
}

// Learner converts to the tier learner's config; zero fields take the
// standard tuning.
func (c RatingConfig) Learner() rating.LearnerConfig {
	l := rating.DefaultLearnerConfig()
	if c.HalfLifeDays > 0 {
		l.HalfLifeDays = c.HalfLifeDays
	}
	if c.MinRatings > 0 {
		l.MinRatings = c.MinRatings
	}
	if c.MinEligible > 0 {
		l.MinEligible = c.MinEligible
	}
	if c.QualityMinAvg > 0 {
		l.QualityMinAvg = c.QualityMinAvg
	}
	if c.BalancedMinAvg > 0 {
		l.BalancedMinAvg = c.BalancedMinAvg
	}
	return l
}

// Config is the full process configuration.
type Config struct {
	Store     StoreConfig               `json:"store" toml:"store" yaml:"store"`
	Budget    BudgetConfig              `json:"budget" toml:"budget" yaml:"budget"`
	Router    RouterConfig              `json:"router" toml:"router" yaml:"router"`
	Council   CouncilConfig             `json:"council" toml:"council" yaml:"council"`
	Executor  ExecutorConfig            `json:"executor" toml:"executor" yaml:"executor"`
	Rating    RatingConfig              `json:"rating" toml:"rating" yaml:"rating"`
	Providers map[string]ProviderConfig `json:"providers" toml:"providers" yaml:"providers"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store:  StoreConfig{Root: ".janus"},
		Budget: BudgetConfig{MonthlyLimitUSD: 25},
		Router: RouterConfig{CostOptimization: true, MaxOutputTokens: 2000},
		Executor: ExecutorConfig{
			RepoRoot: ".",
		},
		Providers: map[string]ProviderConfig{},
	}
}

// WithDefaults returns a copy with zero values filled in.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.Store.Root == "" {
		c.Store.Root = d.Store.Root
	}
	if c.Budget.MonthlyLimitUSD <= 0 {
		c.Budget.MonthlyLimitUSD = d.Budget.MonthlyLimitUSD
	}
	if c.Router.MaxOutputTokens <= 0 {
		c.Router.MaxOutputTokens = d.Router.MaxOutputTokens
	}
	if c.Executor.RepoRoot == "" {
		c.Executor.RepoRoot = d.Executor.RepoRoot
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	return c
}

// Load reads the configuration file at path, dispatching on extension
// (.toml, .yaml, .yml). A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (want .toml, .yaml, or .yml)", ext)
	}
	return cfg.WithDefaults(), nil
}
