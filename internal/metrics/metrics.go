// Package metrics defines the Prometheus collectors exported by the host and
// an optional HTTP endpoint for scraping them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the host.
type Metrics struct {
	WorkersActive   prometheus.Gauge
	WorkersSpawned  prometheus.Counter
	EventsRouted    *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	QueriesScored   prometheus.Counter
	FramesRead      prometheus.Counter
	FramesWritten   prometheus.Counter
	TalonPublishes  *prometheus.CounterVec
	TalonQueryReads *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry, so
// several hosts (or tests) in one process never collide.
func New() *Metrics {
	m := &Metrics{
		WorkersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voicesurf_workers_active",
				Help: "Number of tab workers currently registered.",
			},
		),
		WorkersSpawned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voicesurf_workers_spawned_total",
				Help: "Total tab workers spawned.",
			},
		),
		EventsRouted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicesurf_events_routed_total",
				Help: "Events handled by the router, by kind.",
			},
			[]string{"kind"},
		),
		EventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicesurf_events_dropped_total",
				Help: "Events dropped before reaching a consumer, by reason.",
			},
			[]string{"reason"},
		),
		QueriesScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voicesurf_queries_scored_total",
				Help: "Total queries scored by tab workers.",
			},
		),
		FramesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voicesurf_browser_frames_read_total",
				Help: "Frames decoded from the browser.",
			},
		),
		FramesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voicesurf_browser_frames_written_total",
				Help: "Frames written to the browser.",
			},
		),
		TalonPublishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicesurf_talon_publishes_total",
				Help: "Vocabulary publishes to Talon, by status.",
			},
			[]string{"status"},
		),
		TalonQueryReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicesurf_talon_query_reads_total",
				Help: "Query file reads triggered by directory events, by status.",
			},
			[]string{"status"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.WorkersActive,
		m.WorkersSpawned,
		m.EventsRouted,
		m.EventsDropped,
		m.QueriesScored,
		m.FramesRead,
		m.FramesWritten,
		m.TalonPublishes,
		m.TalonQueryReads,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
