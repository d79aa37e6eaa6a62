package llm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mrz1836/nemo/internal/errors"
)

// Factory builds a Generator for a provider.
type Factory func(cfg Config) (Generator, error)

// Registry maps provider names to factories.
// It provides thread-safe registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry with every built-in provider.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ProviderOllama, newOllama)
	r.Register(ProviderClaude, newAnthropic)
	r.Register(ProviderOpenAI, newOpenAI)
	r.Register(ProviderGroq, newGroq)
	return r
}

// Register adds a factory for a provider.
// If a factory already exists for the provider, it is replaced.
func (r *Registry) Register(provider string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Has checks if a factory is registered for the provider.
func (r *Registry) Has(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[provider]
	return ok
}

// Providers returns all registered provider names in sorted order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build creates the raw Generator for cfg.Provider.
// Returns ErrProviderNotFound if no factory is registered for it.
func (r *Registry) Build(cfg Config) (Generator, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrProviderNotFound, cfg.Provider)
	}
	return factory(cfg)
}
