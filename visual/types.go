// Package visual holds the cluster map controller: it turns lifecycle events into scene
// mutations and animations.
package visual

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/scene"
)

// Surface is the drawing surface the controller mutates. *scene.Graph satisfies it.
type Surface interface {
	Circle(id, class string) *scene.Node
	Path(id, class string) *scene.Node
	Append(n *scene.Node)
	InsertBefore(n, ref *scene.Node)
	Remove(n *scene.Node) bool
	Lookup(id string) (*scene.Node, bool)
	BoundingBox(n *scene.Node) (scene.Rect, bool)
}

// Animator interpolates node attributes. *anim.Engine satisfies it.
type Animator interface {
	Animate(n *scene.Node, to scene.Attrs, d time.Duration, opts ...anim.Option)
	Timeline() *anim.Timeline
	Stop(n *scene.Node, attrs ...string)
}

// Scheduler runs deferred continuations on the controller's goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// ErrMissingField is wrapped by Dispatch when an event lacks a required field.
var ErrMissingField = errors.New("missing required field")

// Event names understood by Dispatch.
const (
	EventPing          = "ping"
	EventPong          = "pong"
	EventWorkerJoin    = "worker_join"
	EventRemoveWorker  = "remove_worker"
	EventStartTask     = "start_task"
	EventEndTask       = "end_task"
	EventStartTransfer = "start_transfer"
	EventEndTransfer   = "end_transfer"
	EventStartSwap     = "start_swap"
	EventEndSwap       = "end_swap"
	EventKilledWorker  = "killed_worker"
	EventReset         = "reset"
	EventTransition    = "transition"
)

// Event is one decoded lifecycle record. Only the fields relevant to Name are set.
type Event struct {
	Name string `json:"name"`

	ID       string `json:"id,omitempty"`
	TaskName string `json:"task_name,omitempty"`

	StartWorker string `json:"start_worker,omitempty"`
	EndWorker   string `json:"end_worker,omitempty"`
	StartID     string `json:"start_id,omitempty"`
	EndID       string `json:"end_id,omitempty"`

	Action   string   `json:"action,omitempty"`
	WorkerID string   `json:"worker_id,omitempty"`
	Key      string   `json:"key,omitempty"`
	Color    string   `json:"color,omitempty"`
	// Start and Stop are span bounds in seconds. Nil means absent, which is distinct from zero.
	Start    *float64 `json:"start,omitempty"`
	Stop     *float64 `json:"stop,omitempty"`
}

type field struct {
	name  string
	value string
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func required(event string, fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return errors.Wrapf(ErrMissingField, "%s: %s", event, f.name)
		}
	}
	return nil
}
