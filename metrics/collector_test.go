package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCollector_KeepsSource(t *testing.T) {
	collector := NewCollector("test-source")

	assert.NotNil(t, collector)
	assert.Equal(t, "test-source", collector.Source())
}

func TestCollector_IncEvent(t *testing.T) {
	collector := NewCollector("test-coll-1")

	before := testutil.ToFloat64(EventsTotal.WithLabelValues("test-coll-1", "worker_join"))
	collector.IncEvent("worker_join")
	after := testutil.ToFloat64(EventsTotal.WithLabelValues("test-coll-1", "worker_join"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncUnknown(t *testing.T) {
	collector := NewCollector("test-coll-2")

	before := testutil.ToFloat64(UnknownEventsTotal.WithLabelValues("test-coll-2"))
	collector.IncUnknown()
	collector.IncUnknown()
	after := testutil.ToFloat64(UnknownEventsTotal.WithLabelValues("test-coll-2"))

	assert.Equal(t, before+2, after)
}

func TestCollector_IncRejected(t *testing.T) {
	collector := NewCollector("test-coll-3")

	before := testutil.ToFloat64(RejectedEventsTotal.WithLabelValues("test-coll-3", "start_task"))
	collector.IncRejected("start_task")
	after := testutil.ToFloat64(RejectedEventsTotal.WithLabelValues("test-coll-3", "start_task"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncMalformedAndConnects(t *testing.T) {
	collector := NewCollector("test-coll-4")

	collector.IncMalformed()
	collector.IncConnects()
	collector.IncConnects()

	assert.Equal(t, 1.0, testutil.ToFloat64(MalformedPayloadsTotal.WithLabelValues("test-coll-4")))
	assert.Equal(t, 2.0, testutil.ToFloat64(ConnectsTotal.WithLabelValues("test-coll-4")))
}

func TestCollector_SetState(t *testing.T) {
	collector := NewCollector("test-coll-5")

	collector.SetState(3, 2, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(Workers.WithLabelValues("test-coll-5")))
	assert.Equal(t, 2.0, testutil.ToFloat64(ActiveTransfers.WithLabelValues("test-coll-5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ActiveTasks.WithLabelValues("test-coll-5")))

	collector.SetState(0, 0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(Workers.WithLabelValues("test-coll-5")))
}

func TestCollector_SetFrameClients(t *testing.T) {
	NewCollector("x").SetFrameClients(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(FrameClients))
}
