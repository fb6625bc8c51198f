// Package metrics holds the Prometheus collectors of the protocol service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProtocolsCommitted counts commits by kind (created, updated).
	ProtocolsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pp_protocols_committed_total",
			Help: "Committed inspection protocols",
		},
		[]string{"kind"},
	)

	ProtocolsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pp_protocols_removed_total",
		Help: "Removed inspection protocols",
	})

	// ValidationFailures counts rejected commits by offending field.
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pp_validation_failures_total",
			Help: "Rejected drafts by field",
		},
		[]string{"field"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pp_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Middleware records request counts and durations. The route pattern is used
// as label so ids do not blow up cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
