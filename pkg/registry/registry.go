// Package registry keeps the root grids served by an engine.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// Registry maps grid names to root configurations. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	grids map[string]*domain.GridConfig
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		grids: make(map[string]*domain.GridConfig),
	}
}

// Register adds a grid to the registry.
// If a grid with the same name exists, it is overwritten.
func (r *Registry) Register(name string, cfg *domain.GridConfig) error {
	if name == "" {
		return fmt.Errorf("grid name is required")
	}
	if cfg == nil {
		return fmt.Errorf("grid %q: config is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grids[name] = cfg
	return nil
}

// Get looks up a grid by name.
func (r *Registry) Get(name string) (*domain.GridConfig, error) {
	r.mu.RLock()
	cfg, ok := r.grids[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGridNotFound, name)
	}
	return cfg, nil
}

// Remove deletes a grid. Unknown names are ignored.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grids, name)
}

// Names returns the registered grid names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.grids))
	for name := range r.grids {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
