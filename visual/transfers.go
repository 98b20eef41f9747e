package visual

import (
	"sort"

	"github.com/Readm/cluster_map/scene"
)

// ArcHandle identifies one transfer arc. It is the only key that removes the arc.
type ArcHandle string

// Transfer is an in-flight data movement between two workers.
type Transfer struct {
	Handle ArcHandle `json:"handle"`
	Source string    `json:"source"`
	Dest   string    `json:"dest"`
	Color  string    `json:"color"`

	seq uint64
	arc *scene.Node
}

// transferRegistry is the single source of truth for active transfers, keyed by handle, with a
// per-worker index kept in step by add and remove.
type transferRegistry struct {
	seq      uint64
	byHandle map[ArcHandle]*Transfer
	byWorker map[string]map[ArcHandle]struct{}
}

func newTransferRegistry() *transferRegistry {
	return &transferRegistry{
		byHandle: make(map[ArcHandle]*Transfer),
		byWorker: make(map[string]map[ArcHandle]struct{}),
	}
}

// track starts indexing worker. Arcs that outlived an earlier membership of the same id are
// picked up again.
func (r *transferRegistry) track(worker string) {
	if _, ok := r.byWorker[worker]; ok {
		return
	}
	idx := make(map[ArcHandle]struct{})
	for h, t := range r.byHandle {
		if t.Source == worker || t.Dest == worker {
			idx[h] = struct{}{}
		}
	}
	r.byWorker[worker] = idx
}

func (r *transferRegistry) untrack(worker string) {
	delete(r.byWorker, worker)
}

func (r *transferRegistry) add(t *Transfer) {
	r.seq++
	t.seq = r.seq
	r.byHandle[t.Handle] = t
	for _, w := range []string{t.Source, t.Dest} {
		if idx, ok := r.byWorker[w]; ok {
			idx[t.Handle] = struct{}{}
		}
	}
}

func (r *transferRegistry) remove(h ArcHandle) (*Transfer, bool) {
	t, ok := r.byHandle[h]
	if !ok {
		return nil, false
	}
	delete(r.byHandle, h)
	for _, w := range []string{t.Source, t.Dest} {
		if idx, ok := r.byWorker[w]; ok {
			delete(idx, h)
		}
	}
	return t, true
}

func (r *transferRegistry) active(worker string) int {
	return len(r.byWorker[worker])
}

func (r *transferRegistry) len() int {
	return len(r.byHandle)
}

func (r *transferRegistry) oldestBetween(src, dst string) (ArcHandle, bool) {
	var best *Transfer
	for _, t := range r.byHandle {
		if t.Source != src || t.Dest != dst {
			continue
		}
		if best == nil || t.seq < best.seq {
			best = t
		}
	}
	if best == nil {
		return "", false
	}
	return best.Handle, true
}

func (r *transferRegistry) all() []*Transfer {
	out := make([]*Transfer, 0, len(r.byHandle))
	for _, t := range r.byHandle {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *transferRegistry) clear() {
	r.byHandle = make(map[ArcHandle]*Transfer)
	for w := range r.byWorker {
		r.byWorker[w] = make(map[ArcHandle]struct{})
	}
}

// StartTransfer draws an arc from src to dst behind the coordinator and colors both endpoints.
// The returned handle must be passed back to EndTransfer. The empty handle means nothing was
// drawn because an endpoint is unknown.
func (c *Controller) StartTransfer(src, dst, color string) ArcHandle {
	from, okFrom := c.nodes[src]
	to, okTo := c.nodes[dst]
	if !okFrom || !okTo {
		c.log.Debugf("start_transfer %s -> %s with unknown endpoint", src, dst)
		return ""
	}
	fromBox, okFrom := c.surface.BoundingBox(from)
	toBox, okTo := c.surface.BoundingBox(to)
	if !okFrom || !okTo {
		return ""
	}

	h := ArcHandle(c.newID())
	arc := c.surface.Path("transfer-"+string(h), "transfer")
	arc.SetAttrs(scene.Attrs{
		scene.AttrD:      quadPath(anchor(fromBox), anchor(toBox), c.curvature()),
		scene.AttrStroke: color,
	})
	c.surface.InsertBefore(arc, c.coordinator)
	c.transfers.add(&Transfer{Handle: h, Source: src, Dest: dst, Color: color, arc: arc})

	c.setFill(from, color)
	c.setFill(to, color)
	return h
}

// EndTransfer removes h's arc, if still active, and restores the endpoints' fill according to
// the restore policy. An unknown handle removes nothing.
func (c *Controller) EndTransfer(src, dst string, h ArcHandle) {
	if t, ok := c.transfers.remove(h); ok {
		c.surface.Remove(t.arc)
	}
	c.restoreEndpoint(src)
	if dst != src {
		c.restoreEndpoint(dst)
	}
}

func (c *Controller) restoreEndpoint(worker string) {
	node, ok := c.nodes[worker]
	if !ok {
		return
	}
	if c.style.Restore == RestoreRefCount && c.transfers.active(worker) > 0 {
		return
	}
	c.setFill(node, c.style.DefaultFill)
}

// Transfers lists active transfers, oldest first.
func (c *Controller) Transfers() []Transfer {
	all := c.transfers.all()
	out := make([]Transfer, 0, len(all))
	for _, t := range all {
		out = append(out, *t)
	}
	return out
}

// ArcOf returns the scene node drawn for h.
func (c *Controller) ArcOf(h ArcHandle) (*scene.Node, bool) {
	t, ok := c.transfers.byHandle[h]
	if !ok {
		return nil, false
	}
	return t.arc, true
}
