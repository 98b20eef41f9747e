package visual

import (
	"math"
	"math/rand"
)

// InsertPolicy picks where a joining worker enters the ring sequence.
type InsertPolicy interface {
	// InsertIndex returns a position in [0, n] for a sequence currently holding n workers.
	InsertIndex(n int) int
}

// RandomInsert places a joining worker at a uniformly random existing position, so the ring
// order keeps shuffling as workers churn instead of settling into join order.
type RandomInsert struct {
	Rand *rand.Rand
}

// InsertIndex implements InsertPolicy.
func (p RandomInsert) InsertIndex(n int) int {
	if n <= 0 {
		return 0
	}
	if p.Rand == nil {
		return rand.Intn(n) // #nosec G404
	}
	return p.Rand.Intn(n)
}

// AppendInsert places joining workers at the end, in join order.
type AppendInsert struct{}

// InsertIndex implements InsertPolicy.
func (AppendInsert) InsertIndex(n int) int {
	return n
}

// InsertPolicyByName maps a config value onto a policy.
func InsertPolicyByName(name string, rng *rand.Rand) (InsertPolicy, bool) {
	switch name {
	case "", "random":
		return RandomInsert{Rand: rng}, true
	case "append":
		return AppendInsert{}, true
	}
	return nil, false
}

func ringAngle(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return 2 * math.Pi * float64(i) / float64(n)
}

// ringPosition places index i of n on a circle of radius r around center.
func ringPosition(center Point, r float64, i, n int) Point {
	theta := ringAngle(i, n)
	return Point{
		X: center.X + r*math.Cos(theta),
		Y: center.Y + r*math.Sin(theta),
	}
}
