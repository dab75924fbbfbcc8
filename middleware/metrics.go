package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	httpMetricsOnce     sync.Once
	httpMetricsInstance *httpMetrics
)

func getHTTPMetrics() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpMetricsInstance = &httpMetrics{
			requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "guestbook_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			}, []string{"route", "method", "status"}),
			requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "guestbook_http_request_duration_seconds",
				Help:    "HTTP request latency by route and method",
				Buckets: prometheus.DefBuckets,
			}, []string{"route", "method"}),
		}
	})
	return httpMetricsInstance
}

// MetricsMiddleware records request counts and latencies per route.
// Unmatched paths share one label so scanners cannot blow up cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	m := getHTTPMetrics()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
