package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the service's Prometheus collectors. Each Recorder has its
// own registry so tests can build as many as they need.
type Recorder struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	computeDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	fleetUsers      prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutricycle_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nutricycle_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method", "class"},
		),
		computeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nutricycle_compute_duration_seconds",
				Help:    "Duration of analytics operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutricycle_cache_lookups_total",
				Help: "Response cache lookups by outcome",
			},
			[]string{"operation", "result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutricycle_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
		fleetUsers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nutricycle_fleet_active_users",
				Help: "Users with feeding data in the last global stats computation",
			},
		),
	}
}

// RecordRequest records one served HTTP request.
func (r *Recorder) RecordRequest(route, method string, status int, seconds float64) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method, StatusClass(status)).Observe(seconds)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.computeDuration.WithLabelValues(op).Observe(seconds)
}

// RecordCacheHit records a response cache hit.
func (r *Recorder) RecordCacheHit(op string) {
	r.cacheLookups.WithLabelValues(op, "hit").Inc()
}

// RecordCacheMiss records a response cache miss.
func (r *Recorder) RecordCacheMiss(op string) {
	r.cacheLookups.WithLabelValues(op, "miss").Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordActiveUsers records the fleet size of the last aggregation.
func (r *Recorder) RecordActiveUsers(n int) {
	r.fleetUsers.Set(float64(n))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// StatusClass buckets a status code into 1xx..5xx.
func StatusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
