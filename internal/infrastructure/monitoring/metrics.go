package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Bridge metrics
	BridgeMessages *prometheus.CounterVec
	BridgeDuration *prometheus.HistogramVec

	// Remote API metrics
	GeminiCalls    *prometheus.CounterVec
	GeminiDuration *prometheus.HistogramVec
	BreakerState   *prometheus.GaugeVec

	// Storage metrics
	StorageOps *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON health endpoint.
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	MessagesHandled int64   `json:"messages_handled"`
	MessagesFailed  int64   `json:"messages_failed"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered on reg. A nil reg uses
// the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebrief_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagebrief_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagebrief_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagebrief_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		BridgeMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebrief_bridge_messages_total",
				Help: "Runtime messages seen by the privileged listener",
			},
			[]string{"action", "outcome"},
		),
		BridgeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagebrief_bridge_duration_seconds",
				Help:    "Time from claiming a runtime message to responding",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"action"},
		),

		GeminiCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebrief_gemini_calls_total",
				Help: "Calls to the generative language API",
			},
			[]string{"operation", "status"},
		),
		GeminiDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagebrief_gemini_duration_seconds",
				Help:    "Generative language API call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pagebrief_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		StorageOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebrief_storage_operations_total",
				Help: "Key/value store operations",
			},
			[]string{"backend", "op", "status"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagebrief_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordBridgeMessage records a runtime message outcome: "ok", "error" or
// "ignored".
func (m *Metrics) RecordBridgeMessage(action, outcome string, duration time.Duration) {
	m.BridgeMessages.WithLabelValues(action, outcome).Inc()
	if outcome == "ignored" {
		return
	}
	m.BridgeDuration.WithLabelValues(action).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.MessagesHandled++
	if outcome == "error" {
		m.snapshot.MessagesFailed++
	}
	m.mu.Unlock()
}

// RecordGeminiCall records one remote API call.
func (m *Metrics) RecordGeminiCall(operation, status string, duration time.Duration) {
	m.GeminiCalls.WithLabelValues(operation, status).Inc()
	m.GeminiDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetBreakerState publishes a circuit breaker state value.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordStorageOp records a key/value store operation.
func (m *Metrics) RecordStorageOp(backend, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOps.WithLabelValues(backend, op, status).Inc()
}

// Snapshot returns a copy of the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
