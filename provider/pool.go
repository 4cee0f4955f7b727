package provider

import (
	"fmt"
	"sync"
)

// Pool lazily constructs and caches one Client per provider from a fixed
// credential map built at process start. It is the single place the
// council and executor obtain transports from, which keeps credential
// handling out of the core algorithms.
type Pool struct {
	mu      sync.Mutex
	configs map[string]Config
	clients map[string]Client
}

// NewPool creates a pool over per-provider configurations. Providers with
// an empty API key are treated as having no credentials.
func NewPool(configs map[string]Config) *Pool {
	cp := make(map[string]Config, len(configs))
	for name, cfg := range configs {
		cp[name] = cfg
	}
	return &Pool{configs: cp, clients: make(map[string]Client)}
}

// HasCredentials reports whether the named provider has an API key
// configured. The gemini SDK can also pick up ambient credentials, but the
// pool treats only explicit configuration as routable.
func (p *Pool) HasCredentials(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[name]
	return ok && cfg.APIKey != ""
}

// Credentials returns the provider→available map the router consumes.
func (p *Pool) Credentials() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.configs))
	for name, cfg := range p.configs {
		out[name] = cfg.APIKey != ""
	}
	return out
}

// Get returns the cached client for a provider, constructing it on first
// use through the registry.
func (p *Pool) Get(name string) (Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[name]; ok {
		return c, nil
	}
	cfg, ok := p.configs[name]
	if !ok || cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s: %w", name, ErrCredentialsNotFound)
	}
	c, err := New(name, cfg)
	if err != nil {
		return nil, err
	}
	p.clients[name] = c
	return c, nil
}

// Put injects a pre-built client, replacing any cached one. Tests use this
// to install fakes without touching the registry.
func (p *Pool) Put(name string, c Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[name] = c
	if _, ok := p.configs[name]; !ok {
		p.configs[name] = Config{APIKey: "injected"}
	}
}

// Close closes every constructed client. The first error wins.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for name, c := range p.clients {
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", name, err)
		}
		delete(p.clients, name)
	}
	return first
}
