package visual

// StartSwap marks a worker as spilling to disk.
func (c *Controller) StartSwap(worker string) {
	if node, ok := c.nodes[worker]; ok {
		c.setFill(node, c.style.SwapColor)
	}
}

// EndSwap clears the swap color.
func (c *Controller) EndSwap(worker string) {
	if node, ok := c.nodes[worker]; ok {
		c.setFill(node, c.style.DefaultFill)
	}
}

// KillWorker paints a worker with the terminal color. The worker stays registered until a
// remove_worker event arrives.
func (c *Controller) KillWorker(worker string) {
	if node, ok := c.nodes[worker]; ok {
		c.setFill(node, c.style.KilledColor)
	}
}

// Reset clears every transient visual: worker fills, transfer arcs, projectiles and task
// associations. Membership and layout are untouched.
func (c *Controller) Reset() {
	for _, id := range c.workers {
		c.setFill(c.nodes[id], c.style.DefaultFill)
	}
	for _, t := range c.transfers.all() {
		c.animator.Stop(t.arc)
		c.surface.Remove(t.arc)
	}
	c.transfers.clear()
	for worker := range c.runs {
		c.dropRuns(worker)
	}
	c.tasks = make(map[string]string)
}
