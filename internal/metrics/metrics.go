// Package metrics exposes Prometheus counters for HTTP traffic and device activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DeviceLogins     *prometheus.CounterVec
	LocationReports  prometheus.Counter
	TaskStatusCalls  *prometheus.CounterVec
	LiveSubscribers  prometheus.Gauge
	LiveDroppedTotal prometheus.Counter
}

// New registers every collector on a fresh registry, so several instances
// can coexist in tests.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		DeviceLogins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_device_logins_total",
				Help: "Device login attempts by result",
			},
			[]string{"result"},
		),
		LocationReports: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_location_reports_total",
				Help: "Location samples stored",
			},
		),
		TaskStatusCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_task_status_calls_total",
				Help: "Calls to the task service by result",
			},
			[]string{"result"},
		),
		LiveSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_live_subscribers",
				Help: "Open live track feed connections",
			},
		),
		LiveDroppedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_live_dropped_total",
				Help: "Live feed messages dropped because a buffer was full",
			},
		),
	}
}

// Middleware records count and latency of every request under its route
// template, never the raw path.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
