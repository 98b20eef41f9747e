package loop

import (
	"time"

	"github.com/emirpasic/gods/queues/priorityqueue"
)

// maxFlush bounds Flush so a callback that keeps rescheduling itself cannot spin forever.
const maxFlush = 1 << 20

type manualTimer struct {
	due time.Time
	seq uint64
	fn  func()
}

func byDue(a, b interface{}) int {
	ta, tb := a.(*manualTimer), b.(*manualTimer)
	switch {
	case ta.due.Before(tb.due):
		return -1
	case tb.due.Before(ta.due):
		return 1
	case ta.seq < tb.seq:
		return -1
	case ta.seq > tb.seq:
		return 1
	}
	return 0
}

// Manual is a virtual-time scheduler. Callbacks run synchronously inside Advance or Flush, in
// due order, ties broken by scheduling order. It is used by tests and by offline replay.
type Manual struct {
	now    time.Time
	seq    uint64
	timers *priorityqueue.Queue
}

// NewManual creates a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		timers: priorityqueue.NewWith(byDue),
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	m.seq++
	m.timers.Enqueue(&manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn})
}

// Advance moves virtual time forward by d, running every callback that falls due, including
// ones scheduled by callbacks along the way. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now.Add(d)
	ran := 0
	for {
		next, ok := m.peek()
		if !ok || next.due.After(target) {
			break
		}
		m.timers.Dequeue()
		if next.due.After(m.now) {
			m.now = next.due
		}
		next.fn()
		ran++
	}
	m.now = target
	return ran
}

// Flush runs callbacks until none are pending, moving time to each due point.
func (m *Manual) Flush() int {
	ran := 0
	for ran < maxFlush {
		next, ok := m.peek()
		if !ok {
			break
		}
		m.timers.Dequeue()
		if next.due.After(m.now) {
			m.now = next.due
		}
		next.fn()
		ran++
	}
	return ran
}

// Pending reports how many callbacks are scheduled.
func (m *Manual) Pending() int {
	return m.timers.Size()
}

func (m *Manual) peek() (*manualTimer, bool) {
	v, ok := m.timers.Peek()
	if !ok {
		return nil, false
	}
	return v.(*manualTimer), true
}
