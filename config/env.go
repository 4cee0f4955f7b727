package config

import "os"

// keyEnvVars maps provider names to the environment variable that
// conventionally carries their API key.
var keyEnvVars = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"groq":      "GROQ_API_KEY",
}

// ApplyEnv fills in API keys from the environment for providers whose
// configured key is empty. File-configured keys win; unrelated
// environment variables are never consulted.
func (c Config) ApplyEnv() Config {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for name, envVar := range keyEnvVars {
		key := os.Getenv(envVar)
		if key == "" {
			continue
		}
		pc := c.Providers[name]
		if pc.APIKey == "" {
			pc.APIKey = key
			c.Providers[name] = pc
		}
	}
	return c
}
