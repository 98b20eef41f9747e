package visual

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Readm/cluster_map/scene"
)

func TestTaskPrefix(t *testing.T) {
	cases := map[string]string{
		"inc-8f3a9b2c":                     "inc",
		"('inc-8f3a9b2c', 3)":              "inc",
		"load-csv-0123456789abcdef":        "load-csv",
		"finalize-12":                      "finalize",
		"sum":                              "sum",
		"read-parquet-fast":                "read-parquet-fast",
		"\"rechunk-merge-a1b2c3d4e5\", 0, 1": "rechunk-merge",
	}
	for in, want := range cases {
		assert.Equal(t, want, TaskPrefix(in), in)
	}
}

func TestTaskColorIsStablePerPrefix(t *testing.T) {
	assert.Equal(t, TaskColor("inc-8f3a9b2c"), TaskColor("inc-91bc00ff"))
	assert.Contains(t, taskPalette, TaskColor("anything"))
}

func TestControlPointBowsAlongNormal(t *testing.T) {
	p := controlPoint(Point{0, 0}, Point{10, 0}, 5)
	assert.InDelta(t, 5, p.X, 1e-9)
	assert.InDelta(t, 5, p.Y, 1e-9)

	p = controlPoint(Point{0, 0}, Point{10, 0}, -5)
	assert.InDelta(t, -5, p.Y, 1e-9)

	p = controlPoint(Point{3, 4}, Point{3, 4}, 50)
	assert.Equal(t, Point{3, 4}, p)
}

func TestQuadPath(t *testing.T) {
	assert.Equal(t, "M 0 0 Q 5 5 10 0", quadPath(Point{0, 0}, Point{10, 0}, 5))
	assert.Equal(t, "M 1.23 0 Q 1.23 0 1.23 0", quadPath(Point{1.2345, 0}, Point{1.2345, 0}, 9))
}

func TestAnchorIsQuarterIntoBox(t *testing.T) {
	assert.Equal(t, Point{X: 15, Y: 25}, anchor(scene.Rect{X: 10, Y: 20, W: 20, H: 20}))
}

func TestCurvatureStaysWithinBound(t *testing.T) {
	c := &Controller{rng: rand.New(rand.NewSource(1)), style: DefaultStyle()}
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, math.Abs(c.curvature()), 50.0)
	}
}

func TestRingAngle(t *testing.T) {
	assert.Equal(t, 0.0, ringAngle(0, 0))
	assert.InDelta(t, math.Pi/2, ringAngle(1, 4), 1e-12)
	p := ringPosition(Point{50, 50}, 40, 1, 4)
	assert.InDelta(t, 50, p.X, 1e-9)
	assert.InDelta(t, 90, p.Y, 1e-9)
}

func TestInsertPolicies(t *testing.T) {
	assert.Equal(t, 0, RandomInsert{}.InsertIndex(0))
	r := RandomInsert{Rand: rand.New(rand.NewSource(5))}
	for i := 0; i < 50; i++ {
		at := r.InsertIndex(4)
		assert.True(t, at >= 0 && at < 4)
	}
	assert.Equal(t, 4, AppendInsert{}.InsertIndex(4))

	_, ok := InsertPolicyByName("append", nil)
	assert.True(t, ok)
	_, ok = InsertPolicyByName("spiral", nil)
	assert.False(t, ok)
}

func TestSourcePickers(t *testing.T) {
	src, ok := FirstSource{}.Pick([]string{"a", "b"}, "a")
	assert.True(t, ok)
	assert.Equal(t, "b", src)

	src, ok = FirstSource{}.Pick([]string{"a"}, "a")
	assert.True(t, ok)
	assert.Equal(t, "a", src)

	_, ok = FirstSource{}.Pick(nil, "a")
	assert.False(t, ok)

	r := RandomSource{Rand: rand.New(rand.NewSource(9))}
	for i := 0; i < 50; i++ {
		src, ok = r.Pick([]string{"a", "b", "c"}, "b")
		assert.True(t, ok)
		assert.NotEqual(t, "b", src)
	}

	_, ok = SourcePickerByName("first", nil)
	assert.True(t, ok)
	_, ok = SourcePickerByName("nearest", nil)
	assert.False(t, ok)
}

func TestSyntheticDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, SyntheticEvent{Start: 1, Stop: 2.5}.Duration())
	assert.Zero(t, SyntheticEvent{Start: 3, Stop: 2}.Duration())
}
