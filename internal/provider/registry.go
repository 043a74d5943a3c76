package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Factory constructs a provider for one capability.
type Factory[P any] func() (P, error)

// Registry maps provider ids to factories for a single capability.
type Registry[P Identified] struct {
	mu        sync.RWMutex
	name      string
	factories map[string]Factory[P]
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry. name identifies the capability in errors and logs.
func NewRegistry[P Identified](name string, logger zerolog.Logger) *Registry[P] {
	return &Registry[P]{
		name:      name,
		factories: make(map[string]Factory[P]),
		logger:    logger,
	}
}

// Register adds or replaces the factory for id.
func (r *Registry[P]) Register(id string, factory Factory[P]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
}

// RegisterInstance registers an already constructed provider under its own id.
func (r *Registry[P]) RegisterInstance(p P) {
	r.Register(p.ID(), func() (P, error) { return p, nil })
}

// IDs returns the registered ids in sorted order.
func (r *Registry[P]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve constructs the provider registered under id.
func (r *Registry[P]) Resolve(id string) (P, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()

	if !ok {
		var zero P
		return zero, fmt.Errorf("%s provider %q: %w", r.name, id, ErrUnknownProvider)
	}

	p, err := factory()
	if err != nil {
		var zero P
		return zero, fmt.Errorf("build %s provider %q: %w", r.name, id, err)
	}
	return p, nil
}

// ResolveChain resolves the primary provider and the fallback order. An unknown
// primary is an error; unknown fallback ids are skipped with a warning.
func (r *Registry[P]) ResolveChain(primary string, order []string) (P, []P, error) {
	p, err := r.Resolve(primary)
	if err != nil {
		var zero P
		return zero, nil, err
	}

	fallbacks := make([]P, 0, len(order))
	for _, id := range order {
		fb, err := r.Resolve(id)
		if err != nil {
			if errors.Is(err, ErrUnknownProvider) {
				r.logger.Warn().
					Str("capability", r.name).
					Str("provider", id).
					Msg("skipping unknown fallback provider")
				continue
			}
			var zero P
			return zero, nil, err
		}
		fallbacks = append(fallbacks, fb)
	}

	return p, fallbacks, nil
}
