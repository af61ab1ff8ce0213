package source

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages source instances at runtime.
// Stores instances by unique name and provides thread-safe operations
// for adding, retrieving, removing, and listing instances.
//
// Multiple instances of the same source type can be registered
// with different names (e.g., "prom-prod", "prom-staging").
type Registry struct {
	instances map[string]Source
	mu        sync.RWMutex
}

// NewRegistry creates a new empty source instance registry
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]Source),
	}
}

// Register adds a source instance to the registry.
// Returns error if name is empty or already exists.
func (r *Registry) Register(name string, src Source) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[name]; exists {
		return fmt.Errorf("instance %q is already registered", name)
	}

	r.instances[name] = src
	return nil
}

// Get retrieves a source instance by name.
// Returns (instance, true) if found, (nil, false) if not registered.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.instances[name]
	return instance, exists
}

// List returns a sorted list of all registered instance names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Remove removes a source instance from the registry.
// Returns true if the instance existed and was removed, false otherwise.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.instances[name]
	if exists {
		delete(r.instances, name)
	}

	return exists
}
