package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so library callers need not wire a registry.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Decision metrics
	DecisionsTotal       *prometheus.CounterVec
	FieldResolutionTotal *prometheus.CounterVec

	// Parameter store metrics
	ParameterLookupsTotal   *prometheus.CounterVec
	ParameterRefreshTotal   *prometheus.CounterVec
	ParameterRefreshSeconds prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcn_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hdcn_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcn_permission_decisions_total",
				Help: "Permission decisions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		FieldResolutionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcn_field_resolutions_total",
				Help: "Field context resolutions by context",
			},
			[]string{"context"},
		),

		ParameterLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcn_parameter_lookups_total",
				Help: "Function-permission lookups by the tier that answered",
			},
			[]string{"tier"},
		),
		ParameterRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcn_parameter_refresh_total",
				Help: "Function-permission refreshes by status",
			},
			[]string{"status"},
		),
		ParameterRefreshSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hdcn_parameter_refresh_duration_seconds",
				Help:    "Function-permission refresh duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		gatherer: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DecisionsTotal,
		m.FieldResolutionTotal,
		m.ParameterLookupsTotal,
		m.ParameterRefreshTotal,
		m.ParameterRefreshSeconds,
	)

	return m
}

// Decision records one permission decision.
func (m *Metrics) Decision(operation string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.DecisionsTotal.WithLabelValues(operation, outcome).Inc()
}

// FieldResolution records one context resolution.
func (m *Metrics) FieldResolution(context string) {
	if m == nil {
		return
	}
	m.FieldResolutionTotal.WithLabelValues(context).Inc()
}

// ParameterLookup records which tier answered a function-permission lookup.
func (m *Metrics) ParameterLookup(tier string) {
	if m == nil {
		return
	}
	m.ParameterLookupsTotal.WithLabelValues(tier).Inc()
}

// ParameterRefresh records a refresh attempt.
func (m *Metrics) ParameterRefresh(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ParameterRefreshTotal.WithLabelValues(status).Inc()
	m.ParameterRefreshSeconds.Observe(time.Since(start).Seconds())
}

// Middleware instruments Fiber requests. Routes are labelled by their
// pattern, not the raw path.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
