package provider

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a single completion call when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 120 * time.Second

// Config holds provider-agnostic client configuration. Credentials are
// passed in explicitly; backends never read environment variables
// themselves.
type Config struct {
	// APIKey authenticates against the provider.
	APIKey string `json:"api_key" yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint. Used to point the
	// OpenAI-compatible backend at alternate hosts (e.g. Groq).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout is the per-call HTTP timeout. Default: DefaultTimeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client `json:"-" yaml:"-"`
}

// WithDefaults returns a copy with zero values filled in.
func (c Config) WithDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}
