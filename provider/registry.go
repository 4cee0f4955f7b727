package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Client for one backend from its credentials.
type Factory func(cfg Config) (Client, error)

// factories maps backend names to constructors. Backends add themselves
// at init time, so importing a backend package is what makes its name
// routable; the providers umbrella package imports all of them.
var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a backend constructible by name from its package init.
// A duplicate name is a wiring mistake, not a runtime condition, and
// panics.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, taken := factories[name]; taken {
		panic(fmt.Sprintf("provider %q already registered", name))
	}
	factories[name] = f
}

// New builds a client for the named backend. ErrUnknownProvider means no
// imported package registered that name.
func New(name string, cfg Config) (Client, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return f(cfg)
}

// Available lists the registered backend names, sorted.
func Available() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend factory exists for name.
func IsRegistered(name string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Unregister drops a backend factory. Tests use it to undo a Register
// of a fake backend.
func Unregister(name string) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	delete(factories, name)
}
