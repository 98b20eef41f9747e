package instrumentation

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/visual"
)

// Entry is one recorded event. AtMS is milliseconds since the first recorded event.
type Entry struct {
	AtMS  int64        `json:"at_ms"`
	Event visual.Event `json:"event"`
}

// Recorder appends every dispatched event to a JSON lines stream.
type Recorder struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	first  time.Time
	began  bool
}

// NewRecorder records to w. If w is an io.Closer, Close closes it.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// OpenRecorder creates or truncates path and records to it.
func OpenRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrapf(err, "opening record file %s", path)
	}
	return NewRecorder(f), nil
}

// Record writes the event carried by ctx. Events that are not visual.Event values are skipped.
func (r *Recorder) Record(ctx *hooks.DispatchContext) error {
	ev, ok := ctx.Event.(visual.Event)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.began {
		r.first, r.began = ctx.At, true
	}
	line, err := json.Marshal(Entry{AtMS: ctx.At.Sub(r.first).Milliseconds(), Event: ev})
	if err != nil {
		return errors.Wrap(err, "encoding record entry")
	}
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "writing record entry")
	}
	return errors.Wrap(r.w.Flush(), "flushing record entry")
}

// Close flushes and closes the underlying stream.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Flush(); err != nil {
		return errors.Wrap(err, "flushing record file")
	}
	if r.closer != nil {
		return errors.Wrap(r.closer.Close(), "closing record file")
	}
	return nil
}

// ReadEntries parses a recording. Blank lines are skipped; the first bad line aborts with its
// line number.
func ReadEntries(rd io.Reader) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading recording")
	}
	return out, nil
}
