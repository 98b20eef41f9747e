package hooks

import (
	"sync"
	"time"
)

// PluginCategory represents the high-level role of a plugin.
type PluginCategory string

const (
	// PluginCategoryVisualization covers frame publishers and renderers.
	PluginCategoryVisualization PluginCategory = "visualization"
	// PluginCategoryInstrumentation covers metrics, recording, and diagnostics.
	PluginCategoryInstrumentation PluginCategory = "instrumentation"
)

// PluginDescriptor describes a plugin registered with the broker.
type PluginDescriptor struct {
	Name        string         `json:"name"`
	Category    PluginCategory `json:"category"`
	Description string         `json:"description,omitempty"`
}

// DispatchContext carries one event through the dispatch hooks. Counters are filled in after
// the handler ran and are zero for before-dispatch hooks.
type DispatchContext struct {
	Name      string
	Event     any
	At        time.Time
	Known     bool
	Synthetic bool
	Err       error

	Workers   int
	Transfers int
	Tasks     int
}

// BeforeDispatchHook runs before an event reaches its handler. Returning an error drops the event.
type BeforeDispatchHook func(ctx *DispatchContext) error

// AfterDispatchHook runs after the handler returned.
type AfterDispatchHook func(ctx *DispatchContext) error

// HookBundle groups multiple hook handlers that belong to one plugin.
type HookBundle struct {
	BeforeDispatch []BeforeDispatchHook
	AfterDispatch  []AfterDispatchHook
}

// PluginBroker coordinates hook registration and triggering.
type PluginBroker struct {
	mu sync.RWMutex

	beforeDispatchHooks []BeforeDispatchHook
	afterDispatchHooks  []AfterDispatchHook

	pluginCatalog map[PluginCategory][]PluginDescriptor
	pluginIndex   map[string]PluginDescriptor
}

// NewPluginBroker creates an empty broker instance.
func NewPluginBroker() *PluginBroker {
	return &PluginBroker{
		beforeDispatchHooks: make([]BeforeDispatchHook, 0),
		afterDispatchHooks:  make([]AfterDispatchHook, 0),
		pluginCatalog:       make(map[PluginCategory][]PluginDescriptor),
		pluginIndex:         make(map[string]PluginDescriptor),
	}
}

// RegisterBeforeDispatch adds a hook executed before each event is handled.
func (p *PluginBroker) RegisterBeforeDispatch(h BeforeDispatchHook) {
	if p == nil || h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beforeDispatchHooks = append(p.beforeDispatchHooks, h)
}

// RegisterAfterDispatch adds a hook executed after each event is handled.
func (p *PluginBroker) RegisterAfterDispatch(h AfterDispatchHook) {
	if p == nil || h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.afterDispatchHooks = append(p.afterDispatchHooks, h)
}

// EmitBeforeDispatch triggers before-dispatch hooks, stopping at the first error.
func (p *PluginBroker) EmitBeforeDispatch(ctx *DispatchContext) error {
	if p == nil || ctx == nil {
		return nil
	}
	p.mu.RLock()
	handlers := make([]BeforeDispatchHook, len(p.beforeDispatchHooks))
	copy(handlers, p.beforeDispatchHooks)
	p.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EmitAfterDispatch triggers after-dispatch hooks, stopping at the first error.
func (p *PluginBroker) EmitAfterDispatch(ctx *DispatchContext) error {
	if p == nil || ctx == nil {
		return nil
	}
	p.mu.RLock()
	handlers := make([]AfterDispatchHook, len(p.afterDispatchHooks))
	copy(handlers, p.afterDispatchHooks)
	p.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RegisterBundle registers a plugin descriptor together with all hook handlers.
func (p *PluginBroker) RegisterBundle(desc PluginDescriptor, bundle HookBundle) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.registerDescriptorLocked(desc)

	if len(bundle.BeforeDispatch) > 0 {
		p.beforeDispatchHooks = append(p.beforeDispatchHooks, bundle.BeforeDispatch...)
	}
	if len(bundle.AfterDispatch) > 0 {
		p.afterDispatchHooks = append(p.afterDispatchHooks, bundle.AfterDispatch...)
	}
}

// RegisterPluginMetadata stores plugin metadata without registering hooks.
func (p *PluginBroker) RegisterPluginMetadata(desc PluginDescriptor) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerDescriptorLocked(desc)
}

// ListPlugins returns descriptors for plugins in the requested category.
func (p *PluginBroker) ListPlugins(category PluginCategory) []PluginDescriptor {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	catalog := p.pluginCatalog[category]
	if len(catalog) == 0 {
		return nil
	}
	out := make([]PluginDescriptor, len(catalog))
	copy(out, catalog)
	return out
}

// ListAllPlugins returns descriptors of every registered plugin.
func (p *PluginBroker) ListAllPlugins() []PluginDescriptor {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]PluginDescriptor, 0, len(p.pluginIndex))
	for _, desc := range p.pluginIndex {
		out = append(out, desc)
	}
	return out
}

func (p *PluginBroker) registerDescriptorLocked(desc PluginDescriptor) {
	if desc.Name == "" {
		return
	}
	if _, exists := p.pluginIndex[desc.Name]; exists {
		return
	}
	p.pluginIndex[desc.Name] = desc
	category := desc.Category
	p.pluginCatalog[category] = append(p.pluginCatalog[category], desc)
}
