package visual

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Readm/cluster_map/scene"
)

// anchor is where arcs attach to a node: a quarter of the way into its bounding box rather than
// the center.
func anchor(box scene.Rect) Point {
	return Point{X: box.X + box.W/4, Y: box.Y + box.H/4}
}

// controlPoint offsets the chord midpoint along the chord's unit normal by offset pixels.
// A zero-length chord has no normal, so the midpoint is returned.
func controlPoint(from, to Point, offset float64) Point {
	mid := Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return mid
	}
	nx, ny := -dy/length, dx/length
	return Point{X: mid.X + nx*offset, Y: mid.Y + ny*offset}
}

// quadPath builds the SVG path of a quadratic curve from -> to bowed by offset.
func quadPath(from, to Point, offset float64) string {
	ctrl := controlPoint(from, to, offset)
	return fmt.Sprintf("M %s %s Q %s %s %s %s",
		coord(from.X), coord(from.Y), coord(ctrl.X), coord(ctrl.Y), coord(to.X), coord(to.Y))
}

// curvature draws a bow magnitude in [0, max] with a random sign, so concurrent arcs between the
// same pair stay apart.
func (c *Controller) curvature() float64 {
	m := c.rng.Float64() * c.style.MaxCurvature
	if c.rng.Intn(2) == 0 {
		m = -m
	}
	return m
}

func coord(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
