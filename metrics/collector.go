package metrics

// Collector wraps metrics and provides helper methods with the source label pre-filled.
type Collector struct {
	source string
}

// NewCollector creates a new Collector for the given event source.
func NewCollector(source string) *Collector {
	return &Collector{source: source}
}

// Source returns the label value used by this collector.
func (c *Collector) Source() string {
	return c.source
}

// IncEvent increments the dispatched events counter.
func (c *Collector) IncEvent(name string) {
	EventsTotal.WithLabelValues(c.source, name).Inc()
}

// IncUnknown increments the unknown events counter.
func (c *Collector) IncUnknown() {
	UnknownEventsTotal.WithLabelValues(c.source).Inc()
}

// IncRejected increments the rejected events counter.
func (c *Collector) IncRejected(name string) {
	RejectedEventsTotal.WithLabelValues(c.source, name).Inc()
}

// IncMalformed increments the malformed payloads counter.
func (c *Collector) IncMalformed() {
	MalformedPayloadsTotal.WithLabelValues(c.source).Inc()
}

// IncConnects increments the stream connects counter.
func (c *Collector) IncConnects() {
	ConnectsTotal.WithLabelValues(c.source).Inc()
}

// SetState sets the entity gauges.
func (c *Collector) SetState(workers, transfers, tasks int) {
	Workers.WithLabelValues(c.source).Set(float64(workers))
	ActiveTransfers.WithLabelValues(c.source).Set(float64(transfers))
	ActiveTasks.WithLabelValues(c.source).Set(float64(tasks))
}

// SetFrameClients sets the frame subscribers gauge.
func (c *Collector) SetFrameClients(n int) {
	FrameClients.Set(float64(n))
}
