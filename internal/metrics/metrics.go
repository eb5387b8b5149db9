// Package metrics exposes the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by route template and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasklist_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasklist_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthEvents counts register, login, logout and refresh attempts.
	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasklist_auth_events_total",
			Help: "Total number of auth events by type and outcome",
		},
		[]string{"event", "outcome"},
	)

	AnonymousTodosCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasklist_anonymous_todos_cleaned_total",
			Help: "Total number of anonymous todos removed by the cleanup job",
		},
	)
)

// Outcome labels for AuthEvents.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RecordAuth counts one auth event.
func RecordAuth(event string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// Middleware records request counts and latency. Unmatched routes share one
// label so arbitrary paths cannot grow the series count.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
