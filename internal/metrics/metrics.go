// Package metrics exposes Prometheus instrumentation at /metrics.
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

// HTTPRequests counts handled requests by route template and status
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks request latency by route template
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "streamflow_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// AuthEvents counts register/login/refresh attempts by result
var AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_auth_events_total",
	Help: "Auth events by type and result.",
}, []string{"event", "result"})

// BillingEvents counts checkout, activation, cancel and webhook events
var BillingEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_billing_events_total",
	Help: "Billing lifecycle events.",
}, []string{"event"})

// PlaybackRequests counts playback source lookups by content type and outcome
var PlaybackRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_playback_requests_total",
	Help: "Playback source requests by content type and outcome.",
}, []string{"content_type", "outcome"})

// ActiveWebsockets is the number of open playback websocket connections
var ActiveWebsockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "streamflow_playback_websockets_active",
	Help: "Open playback progress websocket connections.",
})

// TMDBRequests counts upstream TMDB calls by endpoint kind and result
var TMDBRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_tmdb_requests_total",
	Help: "TMDB API requests by endpoint and result.",
}, []string{"endpoint", "result"})

// CacheLookups counts cache hits and misses by namespace
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_cache_lookups_total",
	Help: "Cache lookups by namespace and result.",
}, []string{"namespace", "result"})

// EventsPublished counts event bus deliveries by type and outcome
var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamflow_events_total",
	Help: "Event bus events by type and outcome.",
}, []string{"type", "outcome"})

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinHandler adapts Handler for gin routing
func GinHandler() gin.HandlerFunc {
	return gin.WrapH(Handler())
}

// Middleware records request counts and latency. Routes are labelled with
// their template so ids do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Result turns an error into a "success" / "failure" label
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
