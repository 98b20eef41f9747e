package visual

import (
	"hash/fnv"
	"strings"
	"time"
	"unicode"
)

// Point is a position in percent-of-viewport units, or pixels for path geometry.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RestorePolicy decides when a transfer end clears an endpoint's fill.
type RestorePolicy string

const (
	// RestoreRefCount clears an endpoint only when no other transfer touching it is active.
	RestoreRefCount RestorePolicy = "refcount"
	// RestoreUnconditional always clears both endpoints.
	RestoreUnconditional RestorePolicy = "unconditional"
)

// Style holds geometry, timing and colors.
type Style struct {
	Center            Point
	Radius            float64
	WorkerRadius      float64
	CoordinatorRadius float64
	LayoutDuration    time.Duration

	FlightDuration  time.Duration
	ColorOffset     time.Duration
	ColorDuration   time.Duration
	ProjectileBow   float64
	ProjectileColor string

	MaxCurvature         float64
	MinSyntheticTransfer time.Duration
	Restore              RestorePolicy

	DefaultFill   string
	TransferColor string
	SwapColor     string
	KilledColor   string
}

// DefaultStyle returns the stock look.
func DefaultStyle() Style {
	return Style{
		Center:            Point{X: 50, Y: 50},
		Radius:            40,
		WorkerRadius:      10,
		CoordinatorRadius: 20,
		LayoutDuration:    500 * time.Millisecond,

		FlightDuration:  400 * time.Millisecond,
		ColorOffset:     300 * time.Millisecond,
		ColorDuration:   200 * time.Millisecond,
		ProjectileBow:   20,
		ProjectileColor: "rgba(0,0,0,.4)",

		MaxCurvature:         50,
		MinSyntheticTransfer: 250 * time.Millisecond,
		Restore:              RestoreRefCount,

		TransferColor: "rgba(255,0,0,.6)",
		SwapColor:     "rgba(255,165,0,.6)",
		KilledColor:   "rgba(0,0,0,1)",
	}
}

var taskPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// TaskColor picks a stable color for a task from its name prefix, so every task of the same
// kind ("inc-8f3a..." and "inc-91bc...") shares a color.
func TaskColor(task string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(TaskPrefix(task)))
	return taskPalette[h.Sum32()%uint32(len(taskPalette))]
}

// TaskPrefix strips tuple syntax and the trailing hash or index words from a task key.
func TaskPrefix(task string) string {
	s := strings.TrimLeft(task, "('\" ")
	if i := strings.IndexAny(s, "'\","); i >= 0 {
		s = s[:i]
	}
	words := strings.Split(s, "-")
	kept := words[:0]
	for i, w := range words {
		if i > 0 && isHashWord(w) {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, "-")
}

func isHashWord(w string) bool {
	if w == "" {
		return false
	}
	digits := true
	for _, r := range w {
		if !unicode.IsDigit(r) {
			digits = false
		}
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return false
		}
	}
	return digits || len(w) >= 8
}
