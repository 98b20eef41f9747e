package main

import (
	"context"
	"time"

	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/loop"
	"github.com/Readm/cluster_map/scene"
	"github.com/Readm/cluster_map/visual"
)

// FramePump samples the map on the event loop and hands frames to publishers.
type FramePump struct {
	loop       *loop.Loop
	graph      *scene.Graph
	engine     *anim.Engine
	controller *visual.Controller
	interval   time.Duration

	publishers []visual.FramePublisher
	seq        uint64
}

// NewFramePump creates a pump ticking every interval.
func NewFramePump(l *loop.Loop, g *scene.Graph, e *anim.Engine, c *visual.Controller, interval time.Duration) *FramePump {
	return &FramePump{loop: l, graph: g, engine: e, controller: c, interval: interval}
}

// AddPublisher subscribes p. It must be called before Run.
func (p *FramePump) AddPublisher(pub visual.FramePublisher) {
	if pub != nil {
		p.publishers = append(p.publishers, pub)
	}
}

// Publishers returns the number of subscribed publishers.
func (p *FramePump) Publishers() int {
	return len(p.publishers)
}

// Run ticks until ctx is done or the loop stops.
func (p *FramePump) Run(ctx context.Context) error {
	if len(p.publishers) == 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !p.loop.Post(p.tick) {
				return nil
			}
		}
	}
}

// tick runs on the loop.
func (p *FramePump) tick() {
	p.engine.Frame()
	p.seq++
	frame := visual.Snapshot(p.seq, p.loop.Now(), p.graph, p.controller)
	for _, pub := range p.publishers {
		pub.Publish(frame)
	}
}
