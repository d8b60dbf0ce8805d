// Package metrics exposes engine counters via Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Frame pipeline counters
	FramesProcessed   atomic.Uint64
	FramesNoDetection atomic.Uint64
	VerdictsPhone     atomic.Uint64
	VerdictsPosture   atomic.Uint64

	// Episode counters
	EpisodesOpened atomic.Uint64
	EpisodesClosed atomic.Uint64

	// Evidence counters
	EvidenceSaved  atomic.Uint64
	EvidenceFailed atomic.Uint64

	// Session counters
	SessionsStarted     atomic.Uint64
	SessionsEnded       atomic.Uint64
	StreamInterruptions atomic.Uint64
	ActiveSessions      atomic.Int64

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_frames_processed_total",
			Help: "Total detection frames processed",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_frames_no_detection_total",
			Help: "Total frames with no usable detections",
		},
		func() float64 { return float64(m.FramesNoDetection.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_verdicts_phone_total",
			Help: "Total frames classified distracted by phone",
		},
		func() float64 { return float64(m.VerdictsPhone.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_verdicts_posture_total",
			Help: "Total frames classified distracted by posture",
		},
		func() float64 { return float64(m.VerdictsPosture.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_episodes_opened_total",
			Help: "Total distraction episodes opened",
		},
		func() float64 { return float64(m.EpisodesOpened.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_episodes_closed_total",
			Help: "Total distraction episodes closed",
		},
		func() float64 { return float64(m.EpisodesClosed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_evidence_saved_total",
			Help: "Total evidence frames persisted",
		},
		func() float64 { return float64(m.EvidenceSaved.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_evidence_failed_total",
			Help: "Total evidence persistence failures",
		},
		func() float64 { return float64(m.EvidenceFailed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_sessions_started_total",
			Help: "Total sessions started",
		},
		func() float64 { return float64(m.SessionsStarted.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_sessions_ended_total",
			Help: "Total sessions ended",
		},
		func() float64 { return float64(m.SessionsEnded.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_stream_interruptions_total",
			Help: "Total sessions ended by stream loss",
		},
		func() float64 { return float64(m.StreamInterruptions.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "peer_active_sessions",
			Help: "Number of sessions currently active or calibrating",
		},
		func() float64 { return float64(m.ActiveSessions.Load()) },
	))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
