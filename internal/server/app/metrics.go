package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks broadcaster and session lifecycle counters.
type Metrics struct {
	EventsSent        prometheus.Counter
	EventsDropped     prometheus.Counter
	ActiveConnections prometheus.Gauge
	ActiveSessions    prometheus.Gauge
	ChunksProcessed   prometheus.Counter
	ChunkErrors       prometheus.Counter
	StreamFailures    prometheus.Counter
}

// NewMetrics registers the server metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradingagents_events_sent_total",
			Help: "Events delivered to websocket subscribers.",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradingagents_events_dropped_total",
			Help: "Event deliveries that failed and caused a subscriber prune.",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tradingagents_active_connections",
			Help: "Currently registered websocket subscribers.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tradingagents_active_sessions",
			Help: "Analysis sessions currently held in the store.",
		}),
		ChunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradingagents_chunks_processed_total",
			Help: "Workflow chunks folded into session snapshots.",
		}),
		ChunkErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradingagents_chunk_errors_total",
			Help: "Chunks whose processing failed; runs continue past these.",
		}),
		StreamFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradingagents_stream_failures_total",
			Help: "Runs terminated by a workflow executor error.",
		}),
	}
}

// NewNopMetrics returns metrics backed by a throwaway registry, for tests.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
