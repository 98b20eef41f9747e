// Package metrics exposes prometheus series for the event stream and the cluster map.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventsTotal counts dispatched events of known names.
var EventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clustermap_events_total",
		Help: "Total events dispatched, by event name",
	},
	[]string{"source", "event"},
)

// UnknownEventsTotal counts events whose name has no handler.
var UnknownEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clustermap_unknown_events_total",
		Help: "Total events ignored because their name is unknown",
	},
	[]string{"source"},
)

// RejectedEventsTotal counts events dropped for missing required fields.
var RejectedEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clustermap_rejected_events_total",
		Help: "Total events rejected by their handler",
	},
	[]string{"source", "event"},
)

// MalformedPayloadsTotal counts payloads the transport could not decode.
var MalformedPayloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clustermap_malformed_payloads_total",
		Help: "Total event stream payloads that failed to decode",
	},
	[]string{"source"},
)

// ConnectsTotal counts successful event stream handshakes.
var ConnectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clustermap_stream_connects_total",
		Help: "Total successful event stream connections",
	},
	[]string{"source"},
)

// Workers tracks live workers on the ring.
var Workers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "clustermap_workers",
		Help: "Current live workers",
	},
	[]string{"source"},
)

// ActiveTransfers tracks transfer arcs on screen.
var ActiveTransfers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "clustermap_active_transfers",
		Help: "Current active transfers",
	},
	[]string{"source"},
)

// ActiveTasks tracks task associations.
var ActiveTasks = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "clustermap_active_tasks",
		Help: "Current active task associations",
	},
	[]string{"source"},
)

// FrameClients tracks browsers subscribed to frame pushes.
var FrameClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "clustermap_frame_clients",
		Help: "Current websocket clients receiving frames",
	},
)
