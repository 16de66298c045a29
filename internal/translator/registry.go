package translator

import (
	"maps"
	"slices"
	"sync"

	"github.com/roach88/vqb/internal/pipeline"
)

// Factory builds a fresh translator instance.
type Factory func() Translator

// Registry maps backend names to translator factories.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Default is the process-wide registry backend packages register into.
var Default = NewRegistry()

// Register inserts (or replaces) the factory for name.
// Neither name nor factory is validated; the last registration wins.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns the factory registered under name.
// Returns an UNKNOWN_BACKEND error when name was never registered.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NewUnknownBackend(name)
	}
	return factory, nil
}

// New instantiates the translator registered under name.
func (r *Registry) New(name string) (Translator, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

// Available returns a copy of the registry contents. Mutating the result
// does not affect the registry.
func (r *Registry) Available() map[string]Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.factories)
}

// Names returns the registered backend names, sorted ascending.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// BackendsSupporting returns the names of the backends whose translator
// supports kind, sorted ascending. Each factory is instantiated once.
func (r *Registry) BackendsSupporting(kind pipeline.Kind) []string {
	available := r.Available()
	names := []string{}
	for _, name := range slices.Sorted(maps.Keys(available)) {
		if available[name]().Supports(kind) {
			names = append(names, name)
		}
	}
	return names
}

// Translate looks up name and translates p with a fresh instance.
func (r *Registry) Translate(name string, p pipeline.Pipeline) ([]OutputStep, error) {
	t, err := r.New(name)
	if err != nil {
		return nil, err
	}
	return t.Translate(p)
}

// Register adds a factory to the Default registry.
func Register(name string, factory Factory) {
	Default.Register(name, factory)
}

// Get looks up a factory in the Default registry.
func Get(name string) (Factory, error) {
	return Default.Get(name)
}

// Available returns a copy of the Default registry contents.
func Available() map[string]Factory {
	return Default.Available()
}

// BackendsSupporting queries the Default registry.
func BackendsSupporting(kind pipeline.Kind) []string {
	return Default.BackendsSupporting(kind)
}
