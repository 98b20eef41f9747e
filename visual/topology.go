package visual

import (
	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/scene"
)

func workerNodeID(id string) string {
	return "worker-" + id
}

// AddWorker registers a worker and re-lays out the ring. Known ids are ignored.
func (c *Controller) AddWorker(id string) {
	if id == "" || c.HasWorker(id) {
		return
	}
	node := c.surface.Circle(workerNodeID(id), "worker")
	node.SetAttrs(scene.Attrs{
		scene.AttrCX: c.style.Center.X,
		scene.AttrCY: c.style.Center.Y,
		scene.AttrR:  0,
	})
	c.surface.Append(node)

	at := c.insert.InsertIndex(len(c.workers))
	if at < 0 || at > len(c.workers) {
		at = len(c.workers)
	}
	c.workers = append(c.workers, "")
	copy(c.workers[at+1:], c.workers[at:])
	c.workers[at] = id
	c.nodes[id] = node
	c.transfers.track(id)

	c.log.Debugf("worker %s joined at index %d of %d", id, at, len(c.workers))
	c.relayout()
}

// RemoveWorker unregisters a worker and re-lays out the ring. Unknown ids are ignored.
func (c *Controller) RemoveWorker(id string) {
	at := c.indexOf(id)
	if at < 0 {
		return
	}
	c.workers = append(c.workers[:at], c.workers[at+1:]...)
	node := c.nodes[id]
	delete(c.nodes, id)
	c.transfers.untrack(id)
	c.dropRuns(id)
	for task, w := range c.tasks {
		if w == id {
			delete(c.tasks, task)
		}
	}
	c.animator.Stop(node)
	c.surface.Remove(node)

	c.log.Debugf("worker %s removed, %d left", id, len(c.workers))
	c.relayout()
}

// HasWorker reports whether id is live.
func (c *Controller) HasWorker(id string) bool {
	return c.indexOf(id) >= 0
}

// Workers returns the live worker ids in ring order.
func (c *Controller) Workers() []string {
	out := make([]string, len(c.workers))
	copy(out, c.workers)
	return out
}

// Angle returns a live worker's ring angle in radians.
func (c *Controller) Angle(id string) (float64, bool) {
	at := c.indexOf(id)
	if at < 0 {
		return 0, false
	}
	return ringAngle(at, len(c.workers)), true
}

// Node returns the scene node of a live worker.
func (c *Controller) Node(id string) (*scene.Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// relayout recomputes every worker's ring slot. It is the only place worker positions are set.
func (c *Controller) relayout() {
	n := len(c.workers)
	for i, id := range c.workers {
		node := c.nodes[id]
		p := ringPosition(c.style.Center, c.style.Radius, i, n)
		c.animator.Stop(node, scene.AttrCX, scene.AttrCY, scene.AttrR)
		c.animator.Animate(node, scene.Attrs{
			scene.AttrCX: p.X,
			scene.AttrCY: p.Y,
			scene.AttrR:  c.style.WorkerRadius,
		}, c.style.LayoutDuration, anim.WithEasing(anim.EaseOutQuad))
	}
}

func (c *Controller) indexOf(id string) int {
	for i, w := range c.workers {
		if w == id {
			return i
		}
	}
	return -1
}
