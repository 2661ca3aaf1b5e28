package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	fetchAttempts   *prometheus.CounterVec
	fetchRetries    *prometheus.CounterVec
	fetchNarrowings prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	seriesServed    *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.fetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_fetch_attempts_total",
			Help: "Provider fetch attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)
	r.fetchRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_fetch_retries_total",
			Help: "Retries against a provider after transient failures",
		},
		[]string{"provider"},
	)
	r.fetchNarrowings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_fetch_narrowings_total",
			Help: "Requests that fell back to the narrowed lookback period",
		},
	)
	r.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_cache_hits_total",
			Help: "Series cache hits",
		},
	)
	r.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_cache_misses_total",
			Help: "Series cache misses",
		},
	)
	r.seriesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_series_served_total",
			Help: "Series successfully served, by originating provider",
		},
		[]string{"source"},
	)

	reg.MustRegister(r.fetchAttempts)
	reg.MustRegister(r.fetchRetries)
	reg.MustRegister(r.fetchNarrowings)
	reg.MustRegister(r.cacheHits)
	reg.MustRegister(r.cacheMisses)
	reg.MustRegister(r.seriesServed)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordFetchAttempt records one provider call and its outcome.
func (r *Registry) RecordFetchAttempt(provider, outcome string) {
	r.fetchAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordFetchRetry records a retry against a provider.
func (r *Registry) RecordFetchRetry(provider string) {
	r.fetchRetries.WithLabelValues(provider).Inc()
}

// RecordNarrowing records a period-narrowing fallback.
func (r *Registry) RecordNarrowing() {
	r.fetchNarrowings.Inc()
}

// RecordCacheHit records a series cache hit.
func (r *Registry) RecordCacheHit() {
	r.cacheHits.Inc()
}

// RecordCacheMiss records a series cache miss.
func (r *Registry) RecordCacheMiss() {
	r.cacheMisses.Inc()
}

// RecordSeriesServed records a successfully served series.
func (r *Registry) RecordSeriesServed(source string) {
	r.seriesServed.WithLabelValues(source).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
