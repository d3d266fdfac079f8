package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth attempt result labels.
const (
	ResultOK        = "ok"
	ResultMalformed = "malformed"
	ResultInvalid   = "invalid"
	ResultExpired   = "expired"
	ResultError     = "error"
)

// Metrics holds all application metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Token lifecycle
	TokensIssued  prometheus.Counter
	TokensRevoked prometheus.Counter
	TokensPruned  prometheus.Counter
	TokensActive  prometheus.Gauge

	// Verification hot path
	AuthAttempts *prometheus.CounterVec

	// HTTP layer
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Storage
	DBSizeBytes  prometheus.Gauge
	DBGCReclaims prometheus.Counter
}

// New creates a Metrics set backed by a fresh Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenward_tokens_issued_total",
			Help: "Total number of tokens minted.",
		}),
		TokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenward_tokens_revoked_total",
			Help: "Total number of tokens revoked.",
		}),
		TokensPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenward_tokens_pruned_total",
			Help: "Total number of expired tokens removed by the pruning sweep.",
		}),
		TokensActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokenward_tokens_active",
			Help: "Current number of stored tokens.",
		}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenward_auth_attempts_total",
			Help: "Credential verification attempts by result.",
		}, []string{"result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenward_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenward_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokenward_db_size_bytes",
			Help: "On-disk size of the token database.",
		}),
		DBGCReclaims: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenward_db_gc_runs_total",
			Help: "Completed value-log garbage collection runs.",
		}),
	}

	reg.MustRegister(
		m.TokensIssued,
		m.TokensRevoked,
		m.TokensPruned,
		m.TokensActive,
		m.AuthAttempts,
		m.RequestsTotal,
		m.RequestDuration,
		m.DBSizeBytes,
		m.DBGCReclaims,
	)

	return m
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
