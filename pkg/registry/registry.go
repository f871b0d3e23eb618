// Package registry maps integration domains to the handler factories that
// produce their setup wizards. Factories are registered once at
// integration load time and remain valid for the process lifetime.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
)

// Registry manages the available handler factories. Lookups vastly
// outnumber registrations, hence the RWMutex.
type Registry struct {
	mu      sync.RWMutex
	config  map[string]ports.HandlerFactory
	options map[string]ports.HandlerFactory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		config:  make(map[string]ports.HandlerFactory),
		options: make(map[string]ports.HandlerFactory),
	}
}

// Register adds a config-flow factory for the given integration domain.
// Re-registering a domain overwrites the previous factory.
func (r *Registry) Register(domainName string, factory ports.HandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config[domainName] = factory
}

// RegisterOptions adds an options-flow factory for the given domain.
// Integrations without reconfigurable options simply never call this.
func (r *Registry) RegisterOptions(domainName string, factory ports.HandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[domainName] = factory
}

// Resolve returns the config-flow factory for a domain, or
// domain.ErrUnknownHandler if none is registered.
func (r *Registry) Resolve(domainName string) (ports.HandlerFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.config[domainName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownHandler, domainName)
	}
	return factory, nil
}

// ResolveOptions returns the options-flow factory for a domain, or
// domain.ErrUnknownHandler if the integration has no options flow.
func (r *Registry) ResolveOptions(domainName string) (ports.HandlerFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.options[domainName]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no options flow", domain.ErrUnknownHandler, domainName)
	}
	return factory, nil
}

// SupportsOptions reports whether a domain registered an options flow.
func (r *Registry) SupportsOptions(domainName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.options[domainName]
	return ok
}

// Domains returns the sorted list of domains with a config flow.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := make([]string, 0, len(r.config))
	for name := range r.config {
		domains = append(domains, name)
	}
	sort.Strings(domains)
	return domains
}
