package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrModelNotFound is returned by Resolve when no configured provider
// serves the requested model ID.
var ErrModelNotFound = errors.New("model not found")

// Handle is a resolved model: the transport plus the provider-side
// model name to request.
type Handle struct {
	Provider Provider
	Model    string
}

// Registry maps model IDs to providers. Resolution happens once per run,
// before any turn executes.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider // provider name → transport
	models    map[string]string   // normalized model ID → provider name
	defaults  map[string]string   // provider name → default model
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		models:    make(map[string]string),
		defaults:  make(map[string]string),
	}
}

// Register adds a provider and the model IDs it serves.
// The first model listed becomes the provider's default.
func (r *Registry) Register(p Provider, models ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	for i, m := range models {
		id := NormalizeModelID(m)
		r.models[id] = p.Name()
		if i == 0 {
			r.defaults[p.Name()] = m
		}
	}
}

// Resolve returns the transport handle for a model ID.
// A bare provider name resolves to that provider's default model.
func (r *Registry) Resolve(modelID string) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := NormalizeModelID(modelID)

	if name, ok := r.models[id]; ok {
		return Handle{Provider: r.providers[name], Model: strings.TrimSpace(modelID)}, nil
	}

	// Provider name shorthand: "openai" → that provider's default model.
	if p, ok := r.providers[id]; ok {
		if def := r.defaults[id]; def != "" {
			return Handle{Provider: p, Model: def}, nil
		}
	}

	return Handle{}, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
}

// List returns all registered model IDs, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeModelID lowercases and trims a model ID for lookup.
// Provider-side requests keep the caller's original casing.
func NormalizeModelID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
