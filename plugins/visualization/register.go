// Package visualization registers frame publishers as loadable plugins.
package visualization

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/visual"
)

// Factory creates a frame publisher instance.
type Factory func() (visual.FramePublisher, error)

// Mode describes one publisher kind.
type Mode struct {
	New         Factory
	// Every publishes one frame in Every. Zero or one publishes all of them.
	Every       int
	// SkipEmpty drops frames of a map with no workers.
	SkipEmpty   bool
	Description string
}

// Options configure visualization plugin registration.
type Options struct {
	Modes        map[string]Mode
	AddPublisher func(visual.FramePublisher)
}

// Register registers a visualization plugin for each mode. Loading the plugin builds the
// publisher and subscribes it, wrapped in the mode's frame filter.
func Register(reg *hooks.Registry, opts Options) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	if opts.AddPublisher == nil {
		return errors.New("AddPublisher callback is required")
	}
	for name, mode := range opts.Modes {
		if mode.New == nil {
			continue
		}
		if mode.Every < 0 {
			return errors.Errorf("visualization mode %s: every must not be negative", name)
		}
		desc := hooks.PluginDescriptor{
			Name:        PluginName(name),
			Category:    hooks.PluginCategoryVisualization,
			Description: mode.Description,
		}
		if desc.Description == "" {
			desc.Description = fmt.Sprintf("%s frame publisher", name)
		}
		name, mode := name, mode
		if err := reg.Register(desc.Name, desc, func(*hooks.PluginBroker) error {
			publisher, err := mode.New()
			if err != nil {
				return errors.Wrapf(err, "starting %s publisher", name)
			}
			opts.AddPublisher(filter(publisher, mode))
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// PluginName returns the registry name of a publisher mode.
func PluginName(mode string) string {
	return "visualization/" + mode
}

type filtered struct {
	next      visual.FramePublisher
	every     int
	skipEmpty bool
	seen      int
}

func filter(p visual.FramePublisher, mode Mode) visual.FramePublisher {
	if mode.Every <= 1 && !mode.SkipEmpty {
		return p
	}
	return &filtered{next: p, every: mode.Every, skipEmpty: mode.SkipEmpty}
}

// Publish implements visual.FramePublisher.
func (f *filtered) Publish(frame *visual.Frame) {
	if frame == nil || (f.skipEmpty && len(frame.Workers) == 0) {
		return
	}
	f.seen++
	if f.every > 1 && (f.seen-1)%f.every != 0 {
		return
	}
	f.next.Publish(frame)
}
