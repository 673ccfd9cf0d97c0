// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file instruments HTTP traffic for Prometheus. Labels are the method,
// the registered route (so /games/7 and /games/8 share /games/:id) and, for
// the counter only, the status code.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute is the path label of requests no route matched.
const unmatchedRoute = "unmatched"

// httpMetrics groups the HTTP collectors.
type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	size     *prometheus.HistogramVec
}

func newHTTPMetrics() *httpMetrics {
	return &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			// Game calls are one short SQLite transaction.
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "requests_inflight",
			Help:      "HTTP requests currently being served.",
		}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size by method and route.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 7), // 64B..256KiB
		}, []string{"method", "path"}),
	}
}

func (m *httpMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.requests, m.latency, m.inflight, m.size)
}

var httpStats = newHTTPMetrics()

func init() {
	httpStats.register(prometheus.DefaultRegisterer)
}

// Metrics returns a Gin middleware recording every request. Unmatched
// requests share one path label so probes for random URLs cannot grow the
// label set. Hijacked websocket upgrades report no size and get no size
// observation.
func Metrics() gin.HandlerFunc {
	return httpStats.handler
}

func (m *httpMetrics) handler(c *gin.Context) {
	start := time.Now()
	m.inflight.Inc()
	defer m.inflight.Dec()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = unmatchedRoute
	}
	method := c.Request.Method

	m.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	m.latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	if size := c.Writer.Size(); size >= 0 {
		m.size.WithLabelValues(method, path).Observe(float64(size))
	}
}
