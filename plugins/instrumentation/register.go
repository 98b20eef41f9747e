// Package instrumentation registers the plugins that observe dispatch without touching the map.
package instrumentation

import (
	"github.com/pkg/errors"

	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/metrics"
)

// Plugin names.
const (
	MetricsPlugin  = "instrumentation/metrics"
	RecorderPlugin = "instrumentation/recorder"
)

// Options configure instrumentation plugin registration. A nil field leaves its plugin out.
type Options struct {
	Collector *metrics.Collector
	Recorder  *Recorder
}

// Register registers the instrumentation plugins that have their dependencies set.
func Register(reg *hooks.Registry, opts Options) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	if opts.Collector != nil {
		collector := opts.Collector
		desc := hooks.PluginDescriptor{
			Name:        MetricsPlugin,
			Category:    hooks.PluginCategoryInstrumentation,
			Description: "prometheus counters for dispatched events",
		}
		if err := reg.Register(desc.Name, desc, func(b *hooks.PluginBroker) error {
			if b == nil {
				return errors.New("plugin broker is nil")
			}
			b.RegisterAfterDispatch(func(ctx *hooks.DispatchContext) error {
				Observe(collector, ctx)
				return nil
			})
			return nil
		}); err != nil {
			return err
		}
	}
	if opts.Recorder != nil {
		rec := opts.Recorder
		desc := hooks.PluginDescriptor{
			Name:        RecorderPlugin,
			Category:    hooks.PluginCategoryInstrumentation,
			Description: "records dispatched events as JSON lines",
		}
		if err := reg.Register(desc.Name, desc, func(b *hooks.PluginBroker) error {
			if b == nil {
				return errors.New("plugin broker is nil")
			}
			b.RegisterAfterDispatch(rec.Record)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// Observe updates collector from one finished dispatch.
func Observe(collector *metrics.Collector, ctx *hooks.DispatchContext) {
	switch {
	case !ctx.Known:
		collector.IncUnknown()
	case ctx.Err != nil:
		collector.IncRejected(ctx.Name)
	default:
		collector.IncEvent(ctx.Name)
	}
	collector.SetState(ctx.Workers, ctx.Transfers, ctx.Tasks)
}
