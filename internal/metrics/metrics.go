// Package metrics exposes HTTP and connection-pool metrics in the Prometheus
// exposition format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "myflix"

// Registry owns the collectors for a single server instance.
type Registry struct {
	reg             *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors
// already registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(r.requestsTotal, r.requestDuration)
	return r
}

// Middleware records request counts and latency labelled by the matched chi
// route pattern, so path parameters do not explode label cardinality.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.requestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry contents.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// RegisterPool exports pgxpool statistics gathered on every scrape.
func (r *Registry) RegisterPool(stats func() *pgxpool.Stat) error {
	return r.reg.Register(&poolCollector{stats: stats})
}

var (
	poolAcquiredDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
		"Connections currently checked out of the pool", nil, nil)
	poolIdleDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
		"Idle connections in the pool", nil, nil)
	poolTotalDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
		"Total connections in the pool", nil, nil)
	poolMaxDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db_pool", "max_conns"),
		"Configured maximum pool size", nil, nil)
	poolAcquireCountDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db_pool", "acquires_total"),
		"Cumulative successful acquires", nil, nil)
	poolAcquireWaitDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db_pool", "acquire_wait_seconds_total"),
		"Cumulative time spent waiting for a connection", nil, nil)
)

type poolCollector struct {
	stats func() *pgxpool.Stat
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolAcquiredDesc
	ch <- poolIdleDesc
	ch <- poolTotalDesc
	ch <- poolMaxDesc
	ch <- poolAcquireCountDesc
	ch <- poolAcquireWaitDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.stats()
	if stat == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(poolAcquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(poolTotalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(poolAcquireCountDesc, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(poolAcquireWaitDesc, prometheus.CounterValue, stat.AcquireDuration().Seconds())
}
