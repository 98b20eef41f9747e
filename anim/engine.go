// Package anim interpolates scene node attributes over time.
//
// Numeric attributes tween from their current value to the target; string attributes (colors,
// path geometry) switch when the step begins. All callbacks go through the Clock, so the engine
// runs on whatever goroutine the clock delivers to.
package anim

import (
	"time"

	"github.com/Readm/cluster_map/scene"
)

// Clock schedules callbacks. loop.Loop and loop.Manual both satisfy it.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func())
}

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(float64) float64

// Linear is the identity easing.
func Linear(p float64) float64 { return p }

// EaseOutQuad decelerates towards the end.
func EaseOutQuad(p float64) float64 { return 1 - (1-p)*(1-p) }

// Option tweaks a single animation.
type Option func(*tween)

// From sets attributes immediately before the animation starts, so it appears to grow from
// that state.
func From(attrs scene.Attrs) Option {
	return func(t *tween) { t.initial = attrs }
}

// OnComplete registers a callback run when the animation reaches its target. It does not run
// for animations cancelled by Stop.
func OnComplete(fn func()) Option {
	return func(t *tween) {
		if fn != nil {
			t.onDone = append(t.onDone, fn)
		}
	}
}

// WithEasing overrides the default ease-out curve.
func WithEasing(e Easing) Option {
	return func(t *tween) {
		if e != nil {
			t.ease = e
		}
	}
}

type tween struct {
	node    *scene.Node
	initial scene.Attrs
	from    map[string]float64
	to      map[string]float64
	start   time.Time
	dur     time.Duration
	ease    Easing
	onDone  []func()
	done    bool
}

// Engine tracks running tweens and pending timeline steps.
type Engine struct {
	clock   Clock
	active  []*tween
	pending map[*step]struct{}
}

// New creates an engine on the given clock.
func New(clock Clock) *Engine {
	return &Engine{
		clock:   clock,
		pending: make(map[*step]struct{}),
	}
}

// Animate moves node's attributes to the targets over d.
func (e *Engine) Animate(node *scene.Node, to scene.Attrs, d time.Duration, opts ...Option) {
	if node == nil {
		return
	}
	t := &tween{
		node:  node,
		from:  make(map[string]float64),
		to:    make(map[string]float64),
		start: e.clock.Now(),
		dur:   d,
		ease:  EaseOutQuad,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.initial != nil {
		node.SetAttrs(t.initial)
	}
	for k, v := range to {
		if f, ok := toFloat(v); ok {
			t.from[k] = node.Number(k)
			t.to[k] = f
			continue
		}
		node.Set(k, v)
	}
	if d <= 0 || len(t.to) == 0 {
		e.finish(t)
		return
	}
	e.active = append(e.active, t)
	e.clock.AfterFunc(d, func() { e.finish(t) })
}

// Stop cancels running tweens and pending timeline steps on node for the named attributes, or
// for all attributes when none are named. Values already applied stay where they are.
func (e *Engine) Stop(node *scene.Node, attrs ...string) {
	if node == nil {
		return
	}
	for _, t := range e.active {
		if t.node != node || t.done {
			continue
		}
		if len(attrs) == 0 {
			t.to = map[string]float64{}
		}
		for _, a := range attrs {
			delete(t.to, a)
			delete(t.from, a)
		}
		if len(t.to) == 0 {
			t.done = true
		}
	}
	e.compact()
	for s := range e.pending {
		if s.node != node {
			continue
		}
		if len(attrs) == 0 {
			s.cancelled = true
			continue
		}
		for _, a := range attrs {
			delete(s.attrs, a)
		}
		if len(s.attrs) == 0 {
			s.cancelled = true
		}
	}
}

// Frame writes interpolated values for every running tween at the current clock time.
func (e *Engine) Frame() {
	now := e.clock.Now()
	for _, t := range e.active {
		if t.done {
			continue
		}
		p := float64(now.Sub(t.start)) / float64(t.dur)
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		eased := t.ease(p)
		for k, target := range t.to {
			from := t.from[k]
			t.node.Set(k, from+(target-from)*eased)
		}
	}
}

// Active returns the number of running tweens.
func (e *Engine) Active() int {
	n := 0
	for _, t := range e.active {
		if !t.done {
			n++
		}
	}
	return n
}

// Pending returns the number of timeline steps waiting for their offset.
func (e *Engine) Pending() int {
	n := 0
	for s := range e.pending {
		if !s.cancelled {
			n++
		}
	}
	return n
}

func (e *Engine) finish(t *tween) {
	if t.done {
		return
	}
	t.done = true
	for k, v := range t.to {
		t.node.Set(k, v)
	}
	e.compact()
	for _, fn := range t.onDone {
		fn()
	}
}

func (e *Engine) compact() {
	kept := e.active[:0]
	for _, t := range e.active {
		if !t.done {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(e.active); i++ {
		e.active[i] = nil
	}
	e.active = kept
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
