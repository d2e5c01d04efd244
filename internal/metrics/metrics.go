package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all dashboard metrics. It satisfies dashboard.Observer.
type Metrics struct {
	// Poll counters
	PollsSucceeded atomic.Uint64
	PollsFailed    atomic.Uint64
	PollsSkipped   atomic.Uint64

	// Stream element load errors reported by the page
	StreamFailures atomic.Uint64

	// Latency of the last successful poll in ms
	PollLatencyMs atomic.Uint64

	// Camera state (0 = idle, 1 = running)
	CameraRunningState atomic.Uint64

	// Live page clients (SSE + WebSocket)
	ActiveClients atomic.Int64
	TotalClients  atomic.Uint64

	alerts   *prometheus.CounterVec
	commands *prometheus.CounterVec
	latency  prometheus.Histogram

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

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_polls_succeeded_total",
			Help: "Detection polls that returned a snapshot",
		},
		func() float64 { return float64(m.PollsSucceeded.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_polls_failed_total",
			Help: "Detection polls that failed",
		},
		func() float64 { return float64(m.PollsFailed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_polls_skipped_total",
			Help: "Poll ticks skipped because a fetch was still in flight",
		},
		func() float64 { return float64(m.PollsSkipped.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_stream_failures_total",
			Help: "Video element load errors reported by the page",
		},
		func() float64 { return float64(m.StreamFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_poll_latency_ms",
			Help: "Latency of the last successful poll in milliseconds",
		},
		func() float64 { return float64(m.PollLatencyMs.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_camera_running",
			Help: "Camera running (0=idle, 1=running)",
		},
		func() float64 { return float64(m.CameraRunningState.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_active_clients",
			Help: "Number of connected page clients",
		},
		func() float64 { return float64(m.ActiveClients.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_total_clients",
			Help: "Total page clients connected",
		},
		func() float64 { return float64(m.TotalClients.Load()) },
	))

	m.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_alerts_raised_total",
		Help: "Alerts added to the alert log, by title",
	}, []string{"title"})
	m.registry.MustRegister(m.alerts)

	m.commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_camera_commands_total",
		Help: "Camera start/stop commands, by command and result",
	}, []string{"command", "result"})
	m.registry.MustRegister(m.commands)

	m.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_poll_duration_seconds",
		Help:    "Duration of successful detection polls",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})
	m.registry.MustRegister(m.latency)
}

// PollSucceeded records a successful poll and its latency.
func (m *Metrics) PollSucceeded(latency time.Duration) {
	m.PollsSucceeded.Add(1)
	m.PollLatencyMs.Store(uint64(latency.Milliseconds()))
	m.latency.Observe(latency.Seconds())
}

func (m *Metrics) PollFailed()   { m.PollsFailed.Add(1) }
func (m *Metrics) PollSkipped()  { m.PollsSkipped.Add(1) }
func (m *Metrics) StreamFailed() { m.StreamFailures.Add(1) }

// AlertRaised counts an alert by title.
func (m *Metrics) AlertRaised(title string) {
	m.alerts.WithLabelValues(title).Inc()
}

// CameraRunning updates the camera state gauge.
func (m *Metrics) CameraRunning(running bool) {
	if running {
		m.CameraRunningState.Store(1)
	} else {
		m.CameraRunningState.Store(0)
	}
}

// CommandFinished counts a start/stop command outcome.
func (m *Metrics) CommandFinished(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(command, result).Inc()
}

// ClientConnected tracks a new page client.
func (m *Metrics) ClientConnected() {
	m.ActiveClients.Add(1)
	m.TotalClients.Add(1)
}

// ClientDisconnected tracks a page client leaving.
func (m *Metrics) ClientDisconnected() {
	m.ActiveClients.Add(-1)
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
