// Package dispatch fans a prompt out to provider backends and validates
// provider credentials. Providers are reached uniformly through the Caller
// contract; the concrete wire protocol lives in the pkg clients.
package dispatch

import (
	"context"
	"sync"

	"github.com/sells-group/fanout-cli/internal/model"
)

// Result is a successful provider completion.
type Result struct {
	Text  string
	Usage model.TokenUsage
}

// Caller is the uniform provider-call contract: one completion or one
// credential check per invocation, no retries.
type Caller interface {
	// Provider returns the identity this caller serves.
	Provider() model.Provider
	// Complete performs a single completion round trip.
	Complete(ctx context.Context, prompt, secret string) (*Result, error)
	// Validate performs a single exchange proving the secret is accepted.
	Validate(ctx context.Context, secret string) error
}

// Registry manages the configured provider callers.
type Registry struct {
	mu      sync.RWMutex
	callers map[model.Provider]Caller
}

// NewRegistry creates an empty caller registry.
func NewRegistry() *Registry {
	return &Registry{
		callers: make(map[model.Provider]Caller),
	}
}

// Register adds a caller to the registry.
func (r *Registry) Register(c Caller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callers[c.Provider()] = c
}

// Get returns a caller by provider, or nil if not configured.
func (r *Registry) Get(p model.Provider) Caller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callers[p]
}

// List returns the configured providers in canonical order.
func (r *Registry) List() []model.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Provider, 0, len(r.callers))
	for _, p := range model.AllProviders() {
		if _, ok := r.callers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
