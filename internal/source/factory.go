package source

import (
	"fmt"
	"sort"
	"sync"
)

// Factory is a function that creates a new source instance.
// name: unique instance name (e.g., "prom-prod")
// config: instance-specific configuration as key-value map
type Factory func(name string, config map[string]interface{}) (Source, error)

// FactoryRegistry stores source factory functions for compile-time discovery.
// Source packages register themselves via init(), not runtime scanning.
//
// Usage pattern:
//
//	// In source package (e.g., internal/source/prometheus/prometheus.go):
//	func init() {
//	  source.RegisterFactory("prometheus", NewPrometheusSource)
//	}
type FactoryRegistry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// defaultRegistry is the global factory registry used by package-level functions
var defaultRegistry = NewFactoryRegistry()

// NewFactoryRegistry creates a new empty factory registry
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory function for the given source type.
// Returns error if sourceType is empty or already registered.
// Thread-safe for concurrent registration (though typically done at init time)
func (r *FactoryRegistry) Register(sourceType string, factory Factory) error {
	if sourceType == "" {
		return fmt.Errorf("source type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[sourceType]; exists {
		return fmt.Errorf("source type %q is already registered", sourceType)
	}

	r.factories[sourceType] = factory
	return nil
}

// Get retrieves the factory function for the given source type.
// Returns (factory, true) if found, (nil, false) if not registered.
func (r *FactoryRegistry) Get(sourceType string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[sourceType]
	return factory, exists
}

// List returns a sorted list of all registered source types.
func (r *FactoryRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	sort.Strings(types)
	return types
}

// RegisterFactory registers a factory function with the default global registry.
// This is the primary API for source packages to register themselves.
func RegisterFactory(sourceType string, factory Factory) error {
	return defaultRegistry.Register(sourceType, factory)
}

// GetFactory retrieves a factory function from the default global registry.
func GetFactory(sourceType string) (Factory, bool) {
	return defaultRegistry.Get(sourceType)
}

// ListFactories returns all registered source types from the default global registry.
func ListFactories() []string {
	return defaultRegistry.List()
}
