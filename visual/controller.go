package visual

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/scene"
)

// CoordinatorID is the scene id of the coordinator node.
const CoordinatorID = "coordinator"

// Options configure a Controller. Surface, Animator and Scheduler are required.
type Options struct {
	Surface   Surface
	Animator  Animator
	Scheduler Scheduler
	Broker    *hooks.PluginBroker

	Insert  InsertPolicy
	Sources SourcePicker
	Rand    *rand.Rand
	Style   Style
	Now     func() time.Time
	// NewID names arcs and projectiles. It defaults to random UUIDs.
	NewID   func() string
}

// Controller owns the worker registry, task associations and in-flight transfers, and is the
// only writer of the scene. It is not safe for concurrent use: run it on one event loop.
type Controller struct {
	surface  Surface
	animator Animator
	clock    Scheduler
	broker   *hooks.PluginBroker
	insert   InsertPolicy
	sources  SourcePicker
	rng      *rand.Rand
	style    Style
	now      func() time.Time
	newID    func() string
	log      *log.Entry

	handlers map[string]func(Event) error

	coordinator *scene.Node
	workers     []string
	nodes       map[string]*scene.Node
	tasks       map[string]string
	runs        map[string][]*taskRun
	transfers   *transferRegistry
}

// New builds a controller and attaches the coordinator node at the center of the ring.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Surface == nil:
		return nil, errors.New("controller needs a surface")
	case opts.Animator == nil:
		return nil, errors.New("controller needs an animator")
	case opts.Scheduler == nil:
		return nil, errors.New("controller needs a scheduler")
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404
	}
	if opts.Insert == nil {
		opts.Insert = RandomInsert{Rand: opts.Rand}
	}
	if opts.Sources == nil {
		opts.Sources = RandomSource{Rand: opts.Rand}
	}
	if opts.Style == (Style{}) {
		opts.Style = DefaultStyle()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	c := &Controller{
		surface:     opts.Surface,
		animator:    opts.Animator,
		clock:       opts.Scheduler,
		broker:      opts.Broker,
		insert:      opts.Insert,
		sources:     opts.Sources,
		rng:         opts.Rand,
		style:       opts.Style,
		now:         opts.Now,
		newID:       opts.NewID,
		log:         log.WithField("component", "controller"),
		nodes:       make(map[string]*scene.Node),
		tasks:       make(map[string]string),
		runs:        make(map[string][]*taskRun),
		transfers:   newTransferRegistry(),
	}
	c.handlers = c.handlerTable()
	c.attachCoordinator()
	return c, nil
}

func (c *Controller) attachCoordinator() {
	node := c.surface.Circle(CoordinatorID, "coordinator")
	node.SetAttrs(scene.Attrs{
		scene.AttrCX: c.style.Center.X,
		scene.AttrCY: c.style.Center.Y,
	})
	c.surface.Append(node)
	c.animator.Animate(node, scene.Attrs{scene.AttrR: c.style.CoordinatorRadius}, c.style.LayoutDuration,
		anim.From(scene.Attrs{scene.AttrR: 0}))
	c.coordinator = node
}

// Coordinator returns the coordinator node.
func (c *Controller) Coordinator() *scene.Node {
	return c.coordinator
}

// Style returns the style in use.
func (c *Controller) Style() Style {
	return c.style
}

// Stats counts live entities.
type Stats struct {
	Workers     int `json:"workers"`
	Transfers   int `json:"transfers"`
	Tasks       int `json:"tasks"`
	Projectiles int `json:"projectiles"`
}

// Stats returns current entity counts.
func (c *Controller) Stats() Stats {
	return Stats{
		Workers:     len(c.workers),
		Transfers:   c.transfers.len(),
		Tasks:       len(c.tasks),
		Projectiles: c.inFlight(),
	}
}

// WorkerState describes one live worker.
type WorkerState struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Angle     float64 `json:"angle"`
	Fill      string  `json:"fill,omitempty"`
	Transfers int     `json:"transfers"`
}

// WorkerStates lists live workers in ring order.
func (c *Controller) WorkerStates() []WorkerState {
	out := make([]WorkerState, 0, len(c.workers))
	for i, id := range c.workers {
		out = append(out, WorkerState{
			ID:        id,
			Index:     i,
			Angle:     ringAngle(i, len(c.workers)),
			Fill:      c.nodes[id].Text(scene.AttrFill),
			Transfers: c.transfers.active(id),
		})
	}
	return out
}

// TaskWorker returns the worker currently associated with a task.
func (c *Controller) TaskWorker(task string) (string, bool) {
	w, ok := c.tasks[task]
	return w, ok
}

// setFill cancels any pending color change on n and applies fill at once.
func (c *Controller) setFill(n *scene.Node, fill string) {
	if n == nil {
		return
	}
	c.animator.Stop(n, scene.AttrFill)
	n.Set(scene.AttrFill, fill)
}
