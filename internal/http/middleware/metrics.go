// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation: generic HTTP traffic metrics
// plus the domain counters the dashboards actually watch (messages dispatched
// by channel and outcome, wallet credits/debits). Labels are kept to bounded
// sets (method, registered route, status) so cardinality stays manageable.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// messagesDispatched counts message send attempts by channel ("sms",
	// "email") and terminal outcome ("sent", "failed").
	messagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_dispatched_total",
			Help: "Total messages dispatched, by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	// walletMutations counts successful wallet balance changes by direction.
	walletMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_mutations_total",
			Help: "Total successful wallet credits and debits.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, messagesDispatched, walletMutations)
}

// CountMessages records message dispatch outcomes for the domain counters.
func CountMessages(channel string, sent, failed int) {
	if sent > 0 {
		messagesDispatched.WithLabelValues(channel, "sent").Add(float64(sent))
	}
	if failed > 0 {
		messagesDispatched.WithLabelValues(channel, "failed").Add(float64(failed))
	}
}

// CountWalletMutation records a successful credit or debit.
func CountWalletMutation(txType string) {
	walletMutations.WithLabelValues(txType).Inc()
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
// The "path" label uses the registered route (c.FullPath()) to avoid
// unbounded cardinality from raw URLs; unmatched requests fall back to the
// raw path.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()

		c.Next()

		httpInflight.Dec()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
