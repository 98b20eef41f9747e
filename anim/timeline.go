package anim

import (
	"time"

	"github.com/Readm/cluster_map/scene"
)

type step struct {
	offset    time.Duration
	node      *scene.Node
	attrs     scene.Attrs
	dur       time.Duration
	opts      []Option
	call      func()
	cancelled bool
}

// Timeline sequences animation steps and callbacks at offsets relative to Play.
type Timeline struct {
	engine *Engine
	steps  []*step
}

// Timeline starts an empty sequence.
func (e *Engine) Timeline() *Timeline {
	return &Timeline{engine: e}
}

// Add schedules an animation of node at offset.
func (tl *Timeline) Add(offset time.Duration, node *scene.Node, attrs scene.Attrs, d time.Duration, opts ...Option) *Timeline {
	copied := make(scene.Attrs, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	tl.steps = append(tl.steps, &step{offset: offset, node: node, attrs: copied, dur: d, opts: opts})
	return tl
}

// Call schedules fn at offset. Callbacks are never cancelled by Stop, so they are the place to
// insert and remove scene elements at animation boundaries.
func (tl *Timeline) Call(offset time.Duration, fn func()) *Timeline {
	tl.steps = append(tl.steps, &step{offset: offset, call: fn})
	return tl
}

// Play starts the sequence. Steps at offset zero run before Play returns, in the order added.
func (tl *Timeline) Play() {
	e := tl.engine
	for _, s := range tl.steps {
		if s.offset <= 0 {
			e.runStep(s)
			continue
		}
		s := s
		e.pending[s] = struct{}{}
		e.clock.AfterFunc(s.offset, func() {
			delete(e.pending, s)
			e.runStep(s)
		})
	}
}

// Cancel drops every step of the sequence that has not run yet. Values already applied stay.
func (tl *Timeline) Cancel() {
	for _, s := range tl.steps {
		s.cancelled = true
		delete(tl.engine.pending, s)
	}
}

func (e *Engine) runStep(s *step) {
	if s.cancelled {
		return
	}
	if s.call != nil {
		s.call()
		return
	}
	e.Animate(s.node, s.attrs, s.dur, s.opts...)
}
