package output

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Registry holds the export destinations in registration order
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
	byName   map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Adapter)}
}

// Register adds a destination. Names must be unique.
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("destination already registered: %s", name)
	}
	r.adapters = append(r.adapters, adapter)
	r.byName[name] = adapter
	return nil
}

// Get looks a destination up by name
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if adapter, ok := r.byName[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("unknown destination: %s (have %v)", name, r.namesLocked())
}

// ForFormat returns the first registered destination that writes format
func (r *Registry) ForFormat(format Format) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.adapters {
		if a.SupportsFormat(format) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no destination writes %s", format)
}

// Names returns the destination names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// CloseAll closes every destination and joins the failures
func (r *Registry) CloseAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, a := range r.adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// TestAll runs Test on every destination, keyed by name
func (r *Registry) TestAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.adapters))
	for _, a := range r.adapters {
		results[a.Name()] = a.Test(ctx)
	}
	return results
}
