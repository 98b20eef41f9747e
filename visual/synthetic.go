package visual

import (
	"math/rand"
	"time"
)

// Synthetic transition actions.
const (
	ActionCompute  = "compute"
	ActionTransfer = "transfer"
)

// SyntheticEvent is a finished span reported after the fact. It is replayed as a start now and
// a deferred end, so it needs no matching end event.
type SyntheticEvent struct {
	Action string
	Worker string
	Key    string
	Color  string
	Start  float64
	Stop   float64
}

// Duration is Stop-Start in seconds, clamped at zero.
func (s SyntheticEvent) Duration() time.Duration {
	d := s.Stop - s.Start
	if d <= 0 {
		return 0
	}
	return time.Duration(d * float64(time.Second))
}

func syntheticFrom(ev Event) SyntheticEvent {
	s := SyntheticEvent{
		Action: ev.Action,
		Worker: ev.WorkerID,
		Key:    ev.Key,
		Color:  ev.Color,
	}
	if ev.Start != nil {
		s.Start = *ev.Start
	}
	if ev.Stop != nil {
		s.Stop = *ev.Stop
	}
	return s
}

// SourcePicker chooses the stand-in source of a synthetic transfer.
type SourcePicker interface {
	Pick(workers []string, dest string) (string, bool)
}

// RandomSource picks uniformly among live workers other than the destination. With a single
// worker it falls back to the destination itself.
type RandomSource struct {
	Rand *rand.Rand
}

// Pick implements SourcePicker.
func (p RandomSource) Pick(workers []string, dest string) (string, bool) {
	if len(workers) == 0 {
		return "", false
	}
	others := make([]string, 0, len(workers))
	for _, w := range workers {
		if w != dest {
			others = append(others, w)
		}
	}
	if len(others) == 0 {
		return workers[0], true
	}
	if p.Rand == nil {
		return others[rand.Intn(len(others))], true // #nosec G404
	}
	return others[p.Rand.Intn(len(others))], true
}

// FirstSource picks the first live worker in ring order that is not the destination.
type FirstSource struct{}

// Pick implements SourcePicker.
func (FirstSource) Pick(workers []string, dest string) (string, bool) {
	for _, w := range workers {
		if w != dest {
			return w, true
		}
	}
	if len(workers) > 0 {
		return workers[0], true
	}
	return "", false
}

// SourcePickerByName maps a config value onto a picker.
func SourcePickerByName(name string, rng *rand.Rand) (SourcePicker, bool) {
	switch name {
	case "", "random":
		return RandomSource{Rand: rng}, true
	case "first":
		return FirstSource{}, true
	}
	return nil, false
}

func (c *Controller) onTransition(ev Event) error {
	if err := required(ev.Name, field{"action", ev.Action}, field{"worker_id", ev.WorkerID}); err != nil {
		return err
	}
	span := []field{{"start", number(ev.Start)}, {"stop", number(ev.Stop)}}
	switch ev.Action {
	case ActionCompute:
		if err := required(ev.Name, append([]field{{"key", ev.Key}}, span...)...); err != nil {
			return err
		}
	case ActionTransfer:
		if err := required(ev.Name, span...); err != nil {
			return err
		}
	}
	c.Transition(syntheticFrom(ev))
	return nil
}

// Transition plays a synthetic span. Deferred ends run through the scheduler and tolerate the
// worker having left in the meantime.
func (c *Controller) Transition(s SyntheticEvent) {
	switch s.Action {
	case ActionCompute:
		c.StartTask(s.Worker, s.Key, s.Color)
		worker, key := s.Worker, s.Key
		c.clock.AfterFunc(s.Duration(), func() {
			c.EndTask(worker, key)
		})
	case ActionTransfer:
		src, ok := c.sources.Pick(c.workers, s.Worker)
		if !ok {
			return
		}
		color := s.Color
		if color == "" {
			color = c.style.TransferColor
		}
		h := c.StartTransfer(src, s.Worker, color)
		if h == "" {
			return
		}
		d := s.Duration()
		if d < c.style.MinSyntheticTransfer {
			d = c.style.MinSyntheticTransfer
		}
		dst := s.Worker
		c.clock.AfterFunc(d, func() {
			c.EndTransfer(src, dst, h)
		})
	default:
		c.log.Debugf("ignoring transition action %q", s.Action)
	}
}
