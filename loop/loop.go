package loop

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultBuffer is the number of posted closures buffered before Post blocks.
const DefaultBuffer = 256

// ErrStopped is returned when work is posted to a loop that is no longer running.
var ErrStopped = errors.New("event loop stopped")

// Loop runs posted closures one at a time on a single goroutine. Everything that touches
// controller, scene or animation state goes through it, including timer continuations.
type Loop struct {
	clock clockwork.Clock
	queue chan func()
	done  chan struct{}
	log   *log.Entry
}

// New creates a loop driven by the given clock. A nil clock means the real clock.
func New(clock clockwork.Clock, buffer int) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Loop{
		clock: clock,
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
		log:   log.WithField("component", "loop"),
	}
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// AfterFunc posts fn to the loop once d has elapsed. There is no cancellation; callbacks must
// tolerate the state they refer to having gone away.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	l.clock.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Post enqueues fn. It blocks while the buffer is full and reports false once the loop has
// stopped.
func (l *Loop) Post(fn func()) bool {
	if l == nil || fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Run executes posted closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

// DrainPending runs every closure currently queued without waiting for more and returns how
// many ran. It must not be called while Run is active.
func (l *Loop) DrainPending() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
			n++
		default:
			return n
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("recovered from panic in loop callback: %v", r)
		}
	}()
	fn()
}
