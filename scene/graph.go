package scene

import (
	"regexp"
	"strconv"
)

// Graph is an ordered in-memory scene. Nodes later in the order draw on top of earlier ones.
// It is not safe for concurrent use; the event loop owns it.
type Graph struct {
	width  float64
	height float64
	order  []*Node
	index  map[string]*Node
}

// NewGraph creates an empty scene for a viewport of width x height pixels.
func NewGraph(width, height float64) *Graph {
	return &Graph{
		width:  width,
		height: height,
		index:  make(map[string]*Node),
	}
}

// Viewport returns the viewport size in pixels.
func (g *Graph) Viewport() (float64, float64) {
	return g.width, g.height
}

// Circle creates a detached circle node.
func (g *Graph) Circle(id, class string) *Node {
	return newNode(id, KindCircle, class)
}

// Path creates a detached path node.
func (g *Graph) Path(id, class string) *Node {
	return newNode(id, KindPath, class)
}

// Append inserts n on top of everything. A node already in the scene is moved.
func (g *Graph) Append(n *Node) {
	if n == nil {
		return
	}
	g.detach(n)
	g.order = append(g.order, n)
	g.index[n.id] = n
}

// InsertBefore inserts n immediately below ref. When ref is not in the scene n is appended.
func (g *Graph) InsertBefore(n, ref *Node) {
	if n == nil {
		return
	}
	g.detach(n)
	at := g.position(ref)
	if at < 0 {
		g.Append(n)
		return
	}
	g.order = append(g.order, nil)
	copy(g.order[at+1:], g.order[at:])
	g.order[at] = n
	g.index[n.id] = n
}

// Remove takes n out of the scene and reports whether it was present.
func (g *Graph) Remove(n *Node) bool {
	if n == nil || !g.Contains(n) {
		return false
	}
	g.detach(n)
	return true
}

// Contains reports whether this exact node is in the scene.
func (g *Graph) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	cur, ok := g.index[n.id]
	return ok && cur == n
}

// Lookup finds a node by id.
func (g *Graph) Lookup(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Len returns the number of nodes in the scene.
func (g *Graph) Len() int {
	return len(g.order)
}

// ByClass returns the nodes with the given class in draw order.
func (g *Graph) ByClass(class string) []*Node {
	var out []*Node
	for _, n := range g.order {
		if n.class == class {
			out = append(out, n)
		}
	}
	return out
}

// Position returns the draw-order index of n, or -1.
func (g *Graph) Position(n *Node) int {
	return g.position(n)
}

// BoundingBox resolves a node to absolute viewport pixels.
func (g *Graph) BoundingBox(n *Node) (Rect, bool) {
	if !g.Contains(n) {
		return Rect{}, false
	}
	switch n.kind {
	case KindCircle:
		cx := n.Number(AttrCX) / 100 * g.width
		cy := n.Number(AttrCY) / 100 * g.height
		r := n.Number(AttrR)
		return Rect{X: cx - r, Y: cy - r, W: 2 * r, H: 2 * r}, true
	case KindPath:
		return pathBounds(n.Text(AttrD))
	}
	return Rect{}, false
}

// Snapshot copies every node in draw order.
func (g *Graph) Snapshot() []NodeSnapshot {
	out := make([]NodeSnapshot, 0, len(g.order))
	for _, n := range g.order {
		out = append(out, n.Snapshot())
	}
	return out
}

func (g *Graph) position(n *Node) int {
	if !g.Contains(n) {
		return -1
	}
	for i, cur := range g.order {
		if cur == n {
			return i
		}
	}
	return -1
}

func (g *Graph) detach(n *Node) {
	at := g.position(n)
	if at < 0 {
		return
	}
	g.order = append(g.order[:at], g.order[at+1:]...)
	delete(g.index, n.id)
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:e-?\d+)?`)

func pathBounds(d string) (Rect, bool) {
	nums := numberPattern.FindAllString(d, -1)
	if len(nums) < 2 {
		return Rect{}, false
	}
	var minX, minY, maxX, maxY float64
	for i := 0; i+1 < len(nums); i += 2 {
		x, errX := strconv.ParseFloat(nums[i], 64)
		y, errY := strconv.ParseFloat(nums[i+1], 64)
		if errX != nil || errY != nil {
			return Rect{}, false
		}
		if i == 0 || x < minX {
			minX = x
		}
		if i == 0 || x > maxX {
			maxX = x
		}
		if i == 0 || y < minY {
			minY = y
		}
		if i == 0 || y > maxY {
			maxY = y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}
