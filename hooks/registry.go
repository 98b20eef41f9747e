package hooks

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// PluginFactory installs hooks into the broker.
type PluginFactory func(broker *PluginBroker) error

type registryEntry struct {
	desc    PluginDescriptor
	factory PluginFactory
}

// Registry keeps plugin factories that can be activated via configuration.
type Registry struct {
	mu     sync.RWMutex
	broker *PluginBroker

	plugins map[string]registryEntry
	loaded  map[string]bool
}

// NewRegistry creates an empty plugin registry bound to a broker.
func NewRegistry(broker *PluginBroker) *Registry {
	if broker == nil {
		broker = NewPluginBroker()
	}
	return &Registry{
		broker:  broker,
		plugins: make(map[string]registryEntry),
		loaded:  make(map[string]bool),
	}
}

// Broker returns the underlying broker associated with the registry.
func (r *Registry) Broker() *PluginBroker {
	if r == nil {
		return nil
	}
	return r.broker
}

// Register adds a plugin factory under name.
func (r *Registry) Register(name string, desc PluginDescriptor, factory PluginFactory) error {
	if r == nil {
		return errors.New("registry is nil")
	}
	if name == "" {
		return errors.New("plugin name cannot be empty")
	}
	if factory == nil {
		return errors.New("plugin factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return errors.Errorf("plugin already registered: %s", name)
	}
	r.plugins[name] = registryEntry{desc: desc, factory: factory}
	return nil
}

// Load activates the requested plugins in order. Loading a plugin twice is a no-op.
func (r *Registry) Load(names []string) error {
	if r == nil {
		return errors.New("registry is nil")
	}
	for _, name := range names {
		r.mu.Lock()
		entry, ok := r.plugins[name]
		already := r.loaded[name]
		r.mu.Unlock()
		if !ok {
			return errors.Errorf("plugin not found: %s", name)
		}
		if already {
			continue
		}
		if err := entry.factory(r.broker); err != nil {
			return errors.Wrapf(err, "plugin %s failed", name)
		}
		r.broker.RegisterPluginMetadata(entry.desc)
		r.mu.Lock()
		r.loaded[name] = true
		r.mu.Unlock()
	}
	return nil
}

// Descriptor returns metadata registered under the provided name.
func (r *Registry) Descriptor(name string) (PluginDescriptor, bool) {
	if r == nil {
		return PluginDescriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.plugins[name]
	return entry.desc, ok
}

// Names lists registered plugin names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
