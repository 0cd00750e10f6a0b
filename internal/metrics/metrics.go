package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the Prometheus instruments for the stream runtime.
// All methods are safe on a nil receiver so the core can run unmetered.
type Metrics struct {
	registry *prometheus.Registry

	activeStreams prometheus.Gauge
	streamsTotal  *prometheus.CounterVec
	framesTotal   *prometheus.CounterVec
}

// New creates a Metrics backed by a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bubblekit_active_streams",
			Help: "Number of currently open NDJSON streams.",
		}),
		streamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bubblekit_streams_total",
			Help: "Completed streams by terminal reason.",
		}, []string{"reason"}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bubblekit_frames_total",
			Help: "Frames written to stream sinks by frame type.",
		}, []string{"type"}),
	}

	registry.MustRegister(m.activeStreams, m.streamsTotal, m.framesTotal)

	return m
}

// Handler returns an http.Handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StreamOpened records a newly opened stream.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.activeStreams.Inc()
}

// StreamClosed records a stream reaching its terminal frame.
func (m *Metrics) StreamClosed(reason string) {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
	m.streamsTotal.WithLabelValues(reason).Inc()
}

// FrameWritten records one frame written to a sink.
func (m *Metrics) FrameWritten(frameType string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(frameType).Inc()
}
