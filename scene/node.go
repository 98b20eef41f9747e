package scene

// Kind is the shape of a scene node.
type Kind string

const (
	// KindCircle is a circle positioned by cx/cy (percent of viewport) with radius r (pixels).
	KindCircle Kind = "circle"
	// KindPath is a path whose geometry lives in the "d" attribute, in viewport pixels.
	KindPath Kind = "path"
)

// Common attribute names.
const (
	AttrCX       = "cx"
	AttrCY       = "cy"
	AttrR        = "r"
	AttrFill     = "fill"
	AttrStroke   = "stroke"
	AttrD        = "d"
	AttrProgress = "progress"
	AttrOpacity  = "opacity"
)

// Attrs is a set of attribute values. Numbers are stored as float64, everything else as string.
type Attrs map[string]any

// Rect is an axis-aligned box in viewport pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Node is a single element of the scene graph.
type Node struct {
	id    string
	kind  Kind
	class string
	attrs Attrs
}

func newNode(id string, kind Kind, class string) *Node {
	return &Node{id: id, kind: kind, class: class, attrs: make(Attrs)}
}

// ID returns the node id.
func (n *Node) ID() string { return n.id }

// Kind returns the node shape.
func (n *Node) Kind() Kind { return n.kind }

// Class returns the CSS-like class.
func (n *Node) Class() string { return n.class }

// Attr returns the raw attribute value.
func (n *Node) Attr(name string) (any, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.attrs[name]
	return v, ok
}

// Number returns a numeric attribute, or zero when missing or not numeric.
func (n *Node) Number(name string) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return 0
	}
	f, _ := v.(float64)
	return f
}

// Text returns a string attribute, or "" when missing or not a string.
func (n *Node) Text(name string) string {
	v, ok := n.Attr(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Set assigns one attribute. An empty string removes the attribute, which renders as the
// stylesheet default.
func (n *Node) Set(name string, value any) {
	if n == nil {
		return
	}
	switch v := value.(type) {
	case float64:
		n.attrs[name] = v
	case float32:
		n.attrs[name] = float64(v)
	case int:
		n.attrs[name] = float64(v)
	case int64:
		n.attrs[name] = float64(v)
	case string:
		if v == "" {
			delete(n.attrs, name)
			return
		}
		n.attrs[name] = v
	case nil:
		delete(n.attrs, name)
	default:
		n.attrs[name] = value
	}
}

// SetAttrs assigns several attributes at once.
func (n *Node) SetAttrs(attrs Attrs) {
	for k, v := range attrs {
		n.Set(k, v)
	}
}

// Snapshot copies the node into an immutable value.
func (n *Node) Snapshot() NodeSnapshot {
	attrs := make(Attrs, len(n.attrs))
	for k, v := range n.attrs {
		attrs[k] = v
	}
	return NodeSnapshot{ID: n.id, Kind: n.kind, Class: n.class, Attrs: attrs}
}

// NodeSnapshot is a point-in-time copy of a node, safe to hand to other goroutines.
type NodeSnapshot struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Class string `json:"class,omitempty"`
	Attrs Attrs  `json:"attrs"`
}
