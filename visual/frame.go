package visual

import (
	"io"
	"time"

	"github.com/Readm/cluster_map/scene"
)

// Frame is an immutable picture of the map, built on the controller's goroutine and safe to
// share with readers elsewhere.
type Frame struct {
	Seq       uint64               `json:"seq"`
	At        time.Time            `json:"at"`
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	Nodes     []scene.NodeSnapshot `json:"nodes"`
	Workers   []WorkerState        `json:"workers"`
	Transfers []Transfer           `json:"transfers"`
	Stats     Stats                `json:"stats"`
}

// FramePublisher receives frames as they are produced.
type FramePublisher interface {
	Publish(f *Frame)
}

// Snapshot captures g and c into a frame.
func Snapshot(seq uint64, at time.Time, g *scene.Graph, c *Controller) *Frame {
	w, h := g.Viewport()
	return &Frame{
		Seq:       seq,
		At:        at,
		Width:     w,
		Height:    h,
		Nodes:     g.Snapshot(),
		Workers:   c.WorkerStates(),
		Transfers: c.Transfers(),
		Stats:     c.Stats(),
	}
}

// WriteSVG renders the frame's nodes.
func (f *Frame) WriteSVG(w io.Writer) error {
	return scene.RenderSVG(w, f.Width, f.Height, f.Nodes)
}
