package instrumentation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/metrics"
	"github.com/Readm/cluster_map/visual"
)

func TestRegisterAndLoadMetrics(t *testing.T) {
	broker := hooks.NewPluginBroker()
	reg := hooks.NewRegistry(broker)
	collector := metrics.NewCollector("test-instrumentation")

	if err := Register(reg, Options{Collector: collector}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if err := reg.Load([]string{MetricsPlugin}); err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	before := testutil.ToFloat64(metrics.UnknownEventsTotal.WithLabelValues("test-instrumentation"))
	if err := broker.EmitAfterDispatch(&hooks.DispatchContext{Name: "bogus", Workers: 2}); err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	after := testutil.ToFloat64(metrics.UnknownEventsTotal.WithLabelValues("test-instrumentation"))
	if after != before+1 {
		t.Fatalf("expected unknown counter to grow by one, got %v -> %v", before, after)
	}
	if got := testutil.ToFloat64(metrics.Workers.WithLabelValues("test-instrumentation")); got != 2 {
		t.Fatalf("expected workers gauge 2, got %v", got)
	}
	if len(broker.ListPlugins(hooks.PluginCategoryInstrumentation)) != 1 {
		t.Fatalf("expected one instrumentation plugin listed")
	}
}

func TestObserveRejected(t *testing.T) {
	collector := metrics.NewCollector("test-observe")
	Observe(collector, &hooks.DispatchContext{Name: "start_task", Known: true, Err: visual.ErrMissingField})
	Observe(collector, &hooks.DispatchContext{Name: "start_task", Known: true})

	if got := testutil.ToFloat64(metrics.RejectedEventsTotal.WithLabelValues("test-observe", "start_task")); got != 1 {
		t.Fatalf("expected one rejected event, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("test-observe", "start_task")); got != 1 {
		t.Fatalf("expected one dispatched event, got %v", got)
	}
}

func TestRegisterSkipsMissingDependencies(t *testing.T) {
	reg := hooks.NewRegistry(nil)
	if err := Register(reg, Options{}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if len(reg.Names()) != 0 {
		t.Fatalf("expected no plugins, got %v", reg.Names())
	}
	if err := Register(nil, Options{}); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	reg := hooks.NewRegistry(nil)
	if err := Register(reg, Options{Recorder: rec}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if err := reg.Load([]string{RecorderPlugin}); err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	start := time.Unix(100, 0)
	events := []struct {
		at time.Time
		ev visual.Event
	}{
		{start, visual.Event{Name: visual.EventWorkerJoin, ID: "w1"}},
		{start.Add(1500 * time.Millisecond), visual.Event{Name: visual.EventStartSwap, ID: "w1"}},
	}
	for _, e := range events {
		ctx := &hooks.DispatchContext{Name: e.ev.Name, Event: e.ev, At: e.at, Known: true}
		if err := reg.Broker().EmitAfterDispatch(ctx); err != nil {
			t.Fatalf("emit returned error: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	want := `{"at_ms":0,"event":{"name":"worker_join","id":"w1"}}` + "\n" +
		`{"at_ms":1500,"event":{"name":"start_swap","id":"w1"}}` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected recording:\n%s", buf.String())
	}

	entries, err := ReadEntries(strings.NewReader(buf.String() + "\n"))
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if len(entries) != 2 || entries[1].AtMS != 1500 || entries[1].Event.ID != "w1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestReadEntriesReportsBadLine(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("{\"at_ms\":0,\"event\":{\"name\":\"ping\"}}\nnope\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}
