package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics instruments the backend gateway, the event bus and the
// pollers. One instance per process, registered on a private registry.
type ClientMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	rateLimitSignals prometheus.Counter
	eventsPublished  *prometheus.CounterVec

	pollTicks     *prometheus.CounterVec
	pollersActive prometheus.Gauge
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maildeck",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total backend requests by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "maildeck",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Backend request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "maildeck",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight backend requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rateLimitSignals := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "maildeck",
			Subsystem: "bus",
			Name:      "rate_limit_signals_total",
			Help:      "Total rate-limit signals broadcast from throttled responses.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventsPublished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maildeck",
			Subsystem: "bus",
			Name:      "events_published_total",
			Help:      "Total events published by topic.",
		},
		[]string{"service", "topic"},
	)
	pollTicks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maildeck",
			Subsystem: "poll",
			Name:      "ticks_total",
			Help:      "Total poll checks by outcome.",
		},
		[]string{"service", "outcome"},
	)
	pollersActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "maildeck",
			Subsystem: "poll",
			Name:      "active_pollers",
			Help:      "Number of live poll subscriptions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rateLimitSignals,
		eventsPublished,
		pollTicks,
		pollersActive,
	)

	return &ClientMetrics{
		registry:         registry,
		service:          service,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		rateLimitSignals: rateLimitSignals,
		eventsPublished:  eventsPublished,
		pollTicks:        pollTicks,
		pollersActive:    pollersActive,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) RequestStarted() {
	m.requestInFlight.Inc()
}

func (m *ClientMetrics) RequestFinished(operation string, status int, duration time.Duration) {
	m.requestInFlight.Dec()
	m.requestTotal.WithLabelValues(m.service, operation, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
}

func (m *ClientMetrics) RecordRateLimitSignal() {
	m.rateLimitSignals.Inc()
}

func (m *ClientMetrics) RecordEventPublished(topic string) {
	m.eventsPublished.WithLabelValues(m.service, topic).Inc()
}

func (m *ClientMetrics) RecordPollTick(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.pollTicks.WithLabelValues(m.service, outcome).Inc()
}

func (m *ClientMetrics) PollerStarted() {
	m.pollersActive.Inc()
}

func (m *ClientMetrics) PollerStopped() {
	m.pollersActive.Dec()
}
