package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on top of Prometheus
// collectors registered with a caller-supplied registry.
type Prometheus struct {
	registry *prometheus.Registry

	ParsesTotal       *prometheus.CounterVec
	ParseDuration     *prometheus.HistogramVec
	DependenciesTotal *prometheus.CounterVec
	ParseErrorsTotal  *prometheus.CounterVec

	CacheEventsTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	ServerRequestsTotal   *prometheus.CounterVec
	ServerRequestDuration *prometheus.HistogramVec
}

// NewPrometheus creates the lockscan collectors and registers them with reg.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	m := &Prometheus{registry: reg}

	m.ParsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_parses_total",
			Help: "Lockfiles parsed, by detected format",
		},
		[]string{"format"},
	)
	m.ParseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockscan_parse_duration_seconds",
			Help:    "Time spent detecting and parsing a lockfile",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)
	m.DependenciesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_dependencies_total",
			Help: "Dependencies extracted from lockfiles",
		},
		[]string{"format"},
	)
	m.ParseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_parse_errors_total",
			Help: "Recoverable errors reported while parsing lockfiles",
		},
		[]string{"format"},
	)

	m.CacheEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_cache_events_total",
			Help: "Cache lookups and writes",
		},
		[]string{"key_type", "event"},
	)

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_http_client_requests_total",
			Help: "Outgoing HTTP requests, by host and status",
		},
		[]string{"method", "host", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockscan_http_client_request_duration_seconds",
			Help:    "Duration of outgoing HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "host"},
	)
	m.HTTPErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_http_client_errors_total",
			Help: "Outgoing HTTP requests that failed without a response",
		},
		[]string{"method", "host"},
	)

	m.ServerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockscan_http_requests_total",
			Help: "Requests served, by route and status",
		},
		[]string{"method", "route", "status"},
	)
	m.ServerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockscan_http_request_duration_seconds",
			Help:    "Duration of served requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	reg.MustRegister(
		m.ParsesTotal,
		m.ParseDuration,
		m.DependenciesTotal,
		m.ParseErrorsTotal,
		m.CacheEventsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPErrorsTotal,
		m.ServerRequestsTotal,
		m.ServerRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Install registers m for every hook category.
func (m *Prometheus) Install() {
	SetParseHooks(m)
	SetCacheHooks(m)
	SetHTTPHooks(m)
}

func (m *Prometheus) OnParseStart(context.Context, string) {}

func (m *Prometheus) OnParseComplete(_ context.Context, _, format string, deps, errs int, d time.Duration) {
	m.ParsesTotal.WithLabelValues(format).Inc()
	m.ParseDuration.WithLabelValues(format).Observe(d.Seconds())
	m.DependenciesTotal.WithLabelValues(format).Add(float64(deps))
	m.ParseErrorsTotal.WithLabelValues(format).Add(float64(errs))
}

func (m *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	m.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
}

func (m *Prometheus) OnRequest(context.Context, string, string, string) {}

func (m *Prometheus) OnResponse(_ context.Context, method, host, _ string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, host, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (m *Prometheus) OnError(_ context.Context, method, host, _ string, _ error) {
	m.HTTPErrorsTotal.WithLabelValues(method, host).Inc()
}

// ObserveServerRequest records one served request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Prometheus) ObserveServerRequest(method, route string, status int, d time.Duration) {
	m.ServerRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.ServerRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ ParseHooks = (*Prometheus)(nil)
	_ CacheHooks = (*Prometheus)(nil)
	_ HTTPHooks  = (*Prometheus)(nil)
)
