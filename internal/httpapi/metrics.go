package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the HTTP API.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rateLimited        prometheus.Counter
	fetchesTotal       *prometheus.CounterVec
	exportsTotal       *prometheus.CounterVec
	transcriptMessages prometheus.Histogram
}

func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatscribe",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests received",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatscribe",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatscribe",
			Name:      "http_rate_limited_total",
			Help:      "Number of HTTP requests rejected due to rate limiting",
		}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatscribe",
			Name:      "fetches_total",
			Help:      "Transcript fetch attempts by outcome",
		}, []string{"outcome"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatscribe",
			Name:      "exports_total",
			Help:      "Completed exports by format",
		}, []string{"format"}),
		transcriptMessages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatscribe",
			Name:      "transcript_messages",
			Help:      "Messages per successfully fetched transcript",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.rateLimited,
		m.fetchesTotal,
		m.exportsTotal,
		m.transcriptMessages,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records timing and status information.
func (m *Metrics) ObserveRequest(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(dur.Seconds())
}

// IncRateLimited increments the rate limit counter.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// IncFetches counts one fetch attempt with the given outcome.
func (m *Metrics) IncFetches(outcome string) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(outcome).Inc()
}

// IncExports counts one completed export for a format.
func (m *Metrics) IncExports(format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
}

// ObserveTranscript records the size of a fetched transcript.
func (m *Metrics) ObserveTranscript(messages int) {
	if m == nil {
		return
	}
	m.transcriptMessages.Observe(float64(messages))
}
