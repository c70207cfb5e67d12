// Package metrics provides Prometheus metrics for the admin API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all admin API metrics.
	MetricsNamespace = "storefront"

	// MetricsSubsystem is the subsystem for admin API metrics.
	MetricsSubsystem = "admin"
)

// Metrics holds all Prometheus metrics for the admin API.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
	PurgesTotal            *prometheus.CounterVec
	PurgeURLsTotal         prometheus.Counter
	ConnectivityChecks     *prometheus.CounterVec
}

// New creates and registers all admin API metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, by method, route, and status.",
		}, []string{"method", "route", "status"}),
		RequestDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PurgesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "cache_purges_total",
			Help:      "Cache purge requests issued, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		PurgeURLsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "cache_purge_urls_total",
			Help:      "Total URLs submitted for purging.",
		}),
		ConnectivityChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "connectivity_checks_total",
			Help:      "Connectivity checks run, by target and outcome.",
		}, []string{"target", "outcome"}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		m.RequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObservePurge records a purge outcome.
func (m *Metrics) ObservePurge(mode string, ok bool, urlCount int) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.PurgesTotal.WithLabelValues(mode, outcome).Inc()
	m.PurgeURLsTotal.Add(float64(urlCount))
}

// ObserveConnectivity records a connectivity check outcome.
func (m *Metrics) ObserveConnectivity(target string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.ConnectivityChecks.WithLabelValues(target, outcome).Inc()
}
