// Package metrics owns the Prometheus registry and the application collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shepherd"

// Check-in kinds and outcomes used as label values.
const (
	KindMember  = "member"
	KindVisitor = "visitor"

	OutcomeCheckedIn = "checked_in"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Metrics holds the registry and every collector the server exports.
// Recording methods are no-ops on a nil *Metrics.
type Metrics struct {
	registry         *prometheus.Registry
	checkins         *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	outboxRuns       *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	queryDuration    *prometheus.HistogramVec
}

// New creates a private registry with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		checkins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Check-in attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
		tokenValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Check-in token validations by outcome code",
		}, []string{"outcome"}),
		outboxRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_entries_processed_total",
			Help:      "Outbox entries processed by action type and result",
		}, []string{"action", "result"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database call latency by operation",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CheckIn counts one check-in attempt.
func (m *Metrics) CheckIn(kind, outcome string) {
	if m == nil {
		return
	}
	m.checkins.WithLabelValues(kind, outcome).Inc()
}

// TokenValidation counts one token validation. outcome is "valid" or a failure code.
func (m *Metrics) TokenValidation(outcome string) {
	if m == nil {
		return
	}
	m.tokenValidations.WithLabelValues(outcome).Inc()
}

// OutboxProcessed counts one processed outbox entry.
func (m *Metrics) OutboxProcessed(action, result string) {
	if m == nil {
		return
	}
	m.outboxRuns.WithLabelValues(action, result).Inc()
}

// ObserveRequest records an HTTP request. route should be the mux pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery implements storage.QueryObserver.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(op).Observe(d.Seconds())
}
