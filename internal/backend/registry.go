package backend

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrNotRegistered is returned when no factory exists for a backend name
var ErrNotRegistered = errors.New("backend not registered")

var errClosed = errors.New("backend closed")

// Registry maps backend names to factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: map[string]BackendFactory{}}
}

// Register adds factory under name. Names are unique.
func (r *Registry) Register(name string, factory BackendFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("backend %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named backend from settings
func (r *Registry) Create(name string, settings Settings) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	return factory(settings), nil
}

// List returns the registered names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

var defaultRegistry = NewRegistry()

// Register adds a backend to the global registry
func Register(name string, factory BackendFactory) error {
	return defaultRegistry.Register(name, factory)
}

// CreateBackend creates a backend from the global registry
func CreateBackend(name string, settings Settings) (Backend, error) {
	return defaultRegistry.Create(name, settings)
}

// ListBackends returns the names in the global registry
func ListBackends() []string {
	return defaultRegistry.List()
}
