// Package metrics exposes Prometheus metrics of the registry node on a
// dedicated HTTP server.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruteri/account-registry/interfaces"
)

// MetricsServer serves /metrics for its own registry.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	accountsCreated  prometheus.Counter
	callsExecuted    *prometheus.CounterVec
	requestsReverted *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var _ interfaces.Observer = (*MetricsServer)(nil)

// New creates a metrics server listening on addr. All metric names are
// prefixed with namespace.
func New(namespace, addr string) (*MetricsServer, error) {
	m := &MetricsServer{
		registry: prometheus.NewRegistry(),
		accountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Total number of accounts created through the registry.",
		}),
		callsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_executed_total",
			Help:      "Total number of calls executed by accounts, by outcome.",
		}, []string{"success"}),
		requestsReverted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_reverted_total",
			Help:      "Total number of reverted requests, by operation and error kind.",
		}, []string{"operation", "kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"method", "route"}),
	}

	if err := registerAll(m.registry,
		m.accountsCreated,
		m.callsExecuted,
		m.requestsReverted,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	); err != nil {
		return nil, err
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return m, nil
}

func registerAll(reg *prometheus.Registry, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the registry backing /metrics.
func (m *MetricsServer) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

func (m *MetricsServer) AccountCreated() {
	m.accountsCreated.Inc()
}

func (m *MetricsServer) CallExecuted(success bool) {
	m.callsExecuted.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// RequestReverted counts a failed request. Failures without an error kind
// are counted as "other".
func (m *MetricsServer) RequestReverted(operation string, err error) {
	kind := interfaces.ErrorKind(err)
	if kind == "" {
		kind = "other"
	}
	m.requestsReverted.WithLabelValues(operation, kind).Inc()
}

// ObserveRequest records one API request. route is the route pattern, not
// the raw path, to keep label cardinality bounded.
func (m *MetricsServer) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
