package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Decision("check", true)
		m.FieldResolution("memberTable")
		m.ParameterLookup("memory")
		m.ParameterRefresh(time.Now(), nil)
	})
}

func TestDecisionCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Decision("check_ui_permission", true)
	m.Decision("check_ui_permission", false)
	m.Decision("check_ui_permission", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("check_ui_permission", "allow")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("check_ui_permission", "deny")))
}

func TestParameterRefresh(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ParameterRefresh(time.Now(), nil)
	m.ParameterRefresh(time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParameterRefreshTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParameterRefreshTotal.WithLabelValues("error")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/regions", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/regions", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/regions", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hdcn_http_requests_total")
}
