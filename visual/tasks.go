package visual

import (
	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/scene"
)

// taskRun is one StartTask on one worker: its timeline, its projectile while in flight and
// whether its color has landed.
type taskRun struct {
	task       string
	color      string
	timeline   *anim.Timeline
	projectile *scene.Node
	colored    bool
}

// StartTask records task on workerID and plays the compute animation: a projectile flies from
// the coordinator to the worker while, at ColorOffset, the worker takes the task color. An empty
// color is derived from the task name.
func (c *Controller) StartTask(workerID, task, color string) {
	if task != "" {
		c.tasks[task] = workerID
	}
	node, ok := c.nodes[workerID]
	if !ok {
		c.log.Debugf("start_task %q on unknown worker %s", task, workerID)
		return
	}
	if color == "" {
		color = TaskColor(task)
	}

	run := &taskRun{task: task, color: color, timeline: c.animator.Timeline()}
	c.runs[workerID] = append(c.runs[workerID], run)

	tl := run.timeline
	if projectile := c.projectile(node); projectile != nil {
		tl.Call(0, func() {
			c.surface.InsertBefore(projectile, c.coordinator)
			run.projectile = projectile
		})
		tl.Add(0, projectile, scene.Attrs{scene.AttrProgress: 1}, c.style.FlightDuration,
			anim.From(scene.Attrs{scene.AttrProgress: 0}))
		tl.Call(c.style.FlightDuration, func() {
			c.land(run)
		})
	}
	tl.Add(c.style.ColorOffset, node, scene.Attrs{scene.AttrFill: color}, c.style.ColorDuration,
		anim.OnComplete(func() { run.colored = true }))
	tl.Play()
}

// EndTask stops the named task on workerID. Other tasks running on the same worker keep their
// projectiles and pending colors; the worker shows the newest of them that has already landed,
// or the default fill. An empty or unknown task name ends every task on the worker. Only a
// matching task association is dropped.
func (c *Controller) EndTask(workerID, task string) {
	if w, ok := c.tasks[task]; ok && w == workerID {
		delete(c.tasks, task)
	}
	node, ok := c.nodes[workerID]
	if !ok {
		return
	}

	runs := c.runs[workerID]
	at := -1
	if task != "" {
		for i, run := range runs {
			if run.task == task {
				at = i
				break
			}
		}
	}
	if at < 0 {
		c.dropRuns(workerID)
		c.setFill(node, c.style.DefaultFill)
		return
	}

	c.cancelRun(runs[at])
	runs = append(runs[:at], runs[at+1:]...)
	if len(runs) == 0 {
		delete(c.runs, workerID)
		c.setFill(node, c.style.DefaultFill)
		return
	}
	c.runs[workerID] = runs

	fill := c.style.DefaultFill
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].colored {
			fill = runs[i].color
			break
		}
	}
	node.Set(scene.AttrFill, fill)
}

// projectile builds a detached flight path from the coordinator to node, or nil when either
// end has no geometry yet.
func (c *Controller) projectile(node *scene.Node) *scene.Node {
	from, ok := c.surface.BoundingBox(c.coordinator)
	if !ok {
		return nil
	}
	to, ok := c.surface.BoundingBox(node)
	if !ok {
		return nil
	}
	p := c.surface.Path("projectile-"+c.newID(), "projectile")
	p.SetAttrs(scene.Attrs{
		scene.AttrD:      quadPath(anchor(from), anchor(to), c.style.ProjectileBow),
		scene.AttrStroke: c.style.ProjectileColor,
	})
	return p
}

// land removes a projectile that reached its worker.
func (c *Controller) land(run *taskRun) {
	if run.projectile == nil {
		return
	}
	c.surface.Remove(run.projectile)
	run.projectile = nil
}

func (c *Controller) cancelRun(run *taskRun) {
	run.timeline.Cancel()
	if run.projectile != nil {
		c.animator.Stop(run.projectile)
	}
	c.land(run)
}

func (c *Controller) dropRuns(workerID string) {
	for _, run := range c.runs[workerID] {
		c.cancelRun(run)
	}
	delete(c.runs, workerID)
}

func (c *Controller) inFlight() int {
	n := 0
	for _, runs := range c.runs {
		for _, run := range runs {
			if run.projectile != nil {
				n++
			}
		}
	}
	return n
}
