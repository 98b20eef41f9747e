package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/loop"
	"github.com/Readm/cluster_map/metrics"
	"github.com/Readm/cluster_map/plugins/instrumentation"
	"github.com/Readm/cluster_map/plugins/visualization"
	"github.com/Readm/cluster_map/scene"
	"github.com/Readm/cluster_map/transport"
	"github.com/Readm/cluster_map/visual"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "follow a scheduler's event stream and serve the live map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := a.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config)
		},
	}
}

// service holds everything serve wires together.
type service struct {
	loop       *loop.Loop
	graph      *scene.Graph
	engine     *anim.Engine
	controller *visual.Controller
	registry   *hooks.Registry
	collector  *metrics.Collector
	pump       *FramePump
	web        *WebServer
	client     *transport.Client
	recorder   *instrumentation.Recorder
}

// newService builds the controller and its collaborators: scene, then controller with its
// coordinator, then plugins. Nothing runs until run is called.
func newService(config *Config) (*service, error) {
	eventsURL, err := transport.ParseEventsURL(config.Source.URL, config.Source.Path)
	if err != nil {
		return nil, err
	}

	s := &service{
		loop:      loop.New(nil, loop.DefaultBuffer),
		graph:     scene.NewGraph(config.Viewport.Width, config.Viewport.Height),
		registry:  hooks.NewRegistry(nil),
		collector: metrics.NewCollector(eventsURL.Host),
	}
	s.engine = anim.New(s.loop)

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404
	insert, sources := config.Policies(rng)
	s.controller, err = visual.New(visual.Options{
		Surface:   s.graph,
		Animator:  s.engine,
		Scheduler: s.loop,
		Broker:    s.registry.Broker(),
		Insert:    insert,
		Sources:   sources,
		Rand:      rng,
		Style:     config.Style(),
		Now:       s.loop.Now,
	})
	if err != nil {
		return nil, err
	}

	s.pump = NewFramePump(s.loop, s.graph, s.engine, s.controller, time.Duration(config.Animation.FrameInterval))
	s.web = NewWebServer(config.HTTP.Listen, s.inject, promhttp.Handler(), s.collector.SetFrameClients)

	plugins := config.Plugins
	if config.Record.Path != "" {
		if s.recorder, err = instrumentation.OpenRecorder(config.Record.Path); err != nil {
			return nil, err
		}
		plugins = appendMissing(plugins, instrumentation.RecorderPlugin)
	}
	if err := instrumentation.Register(s.registry, instrumentation.Options{
		Collector: s.collector,
		Recorder:  s.recorder,
	}); err != nil {
		return nil, err
	}
	modes := map[string]visualization.Mode{
		"web": {
			New:         func() (visual.FramePublisher, error) { return s.web, nil },
			Description: "frames over http and websocket",
		},
	}
	if config.Snapshot.Path != "" {
		modes["svg"] = visualization.Mode{
			New: func() (visual.FramePublisher, error) {
				file, err := visualization.NewSVGFile(config.Snapshot.Path)
				if err != nil {
					return nil, err
				}
				return file, nil
			},
			Every:       config.Snapshot.Every,
			Description: "svg file snapshots",
		}
		plugins = appendMissing(plugins, visualization.PluginName("svg"))
	}
	if err := visualization.Register(s.registry, visualization.Options{
		Modes:        modes,
		AddPublisher: s.pump.AddPublisher,
	}); err != nil {
		return nil, err
	}
	if err := s.registry.Load(plugins); err != nil {
		return nil, errors.Wrap(err, "loading plugins")
	}

	s.client, err = transport.NewClient(transport.Options{
		URL:          eventsURL,
		ReconnectMin: time.Duration(config.Source.ReconnectMin),
		ReconnectMax: time.Duration(config.Source.ReconnectMax),
		OnEvent: func(ev visual.Event) {
			s.loop.Post(func() { s.dispatch(ev) })
		},
		OnMalformed: func([]byte, error) { s.collector.IncMalformed() },
		OnConnect:   s.collector.IncConnects,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// dispatch runs on the loop. Rejected events are already logged by the controller.
func (s *service) dispatch(ev visual.Event) {
	_ = s.controller.Dispatch(ev)
}

func (s *service) inject(ctx context.Context, events []visual.Event) error {
	return s.loop.Do(ctx, func() {
		for _, ev := range events {
			s.dispatch(ev)
		}
	})
}

// run starts the loop, the frame server, the frame pump and the transport, and stops them all
// when ctx is done or one of them fails.
func (s *service) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.loop.Run(gctx) })
	g.Go(func() error { return s.web.Run(gctx) })
	g.Go(func() error { return s.pump.Run(gctx) })
	g.Go(func() error {
		if err := s.client.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	err := g.Wait()
	if s.recorder != nil {
		if cerr := s.recorder.Close(); cerr != nil {
			GetLogger().WithError(cerr).Warn("closing recorder")
		}
	}
	return err
}

func serve(ctx context.Context, config *Config) error {
	s, err := newService(config)
	if err != nil {
		return err
	}
	GetLogger().WithField("plugins", s.registry.Broker().ListAllPlugins()).Info("starting cluster map")
	return s.run(ctx)
}

func appendMissing(list []string, name string) []string {
	for _, cur := range list {
		if cur == name {
			return list
		}
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, name)
}
