package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// Metrics holds the planner collectors. It implements session.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	Commands           *prometheus.CounterVec
	Transcriptions     *prometheus.CounterVec
	ScheduleOperations prometheus.Gauge
	Resets             prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_commands_total",
			Help: "Scheduling commands processed, by intent and outcome.",
		}, []string{"intent", "accepted"}),
		Transcriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_transcriptions_total",
			Help: "Voice transcriptions, by result.",
		}, []string{"result"}),
		ScheduleOperations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_schedule_operations",
			Help: "Operations in the current schedule.",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_resets_total",
			Help: "Resets to the base schedule.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_http_requests_total",
			Help: "HTTP requests, by method, route and status.",
		}, []string{"method", "endpoint", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}

	reg.MustRegister(
		m.Commands,
		m.Transcriptions,
		m.ScheduleOperations,
		m.Resets,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Handler exposes the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CommandProcessed(intent domain.IntentType, accepted bool) {
	m.Commands.WithLabelValues(string(intent), strconv.FormatBool(accepted)).Inc()
}

func (m *Metrics) Transcription(result string) {
	m.Transcriptions.WithLabelValues(result).Inc()
}

func (m *Metrics) ScheduleSize(operations int) {
	m.ScheduleOperations.Set(float64(operations))
}

func (m *Metrics) ScheduleReset() {
	m.Resets.Inc()
}
