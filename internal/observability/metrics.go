package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	approvalsTotal         prometheus.Counter
	swipeEventsTotal       *prometheus.CounterVec
	notificationsSentTotal *prometheus.CounterVec
	streamClientsActive    prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buspass_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "buspass_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buspass_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		approvalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buspass_enrollment_approvals_total",
			Help: "Total number of pending cards approved into student accounts.",
		})

		swipeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buspass_swipe_events_total",
			Help: "Total number of swipe events ingested, by status.",
		}, []string{"status"})

		notificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buspass_notifications_sent_total",
			Help: "Total number of notifications sent to students, by type.",
		}, []string{"type"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buspass_stream_clients_active",
			Help: "Number of currently connected realtime stream clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			approvalsTotal,
			swipeEventsTotal,
			notificationsSentTotal,
			streamClientsActive,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ApprovalsTotal exposes the enrollment approval counter.
func ApprovalsTotal() prometheus.Counter {
	RegisterMetrics()
	return approvalsTotal
}

// SwipeEventsTotal exposes the swipe ingestion counter.
func SwipeEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return swipeEventsTotal
}

// NotificationsSentTotal exposes the notification counter.
func NotificationsSentTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSentTotal
}

// StreamClientsActive exposes the realtime client gauge.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}
