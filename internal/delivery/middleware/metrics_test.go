package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"triptrack/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware_RecordsRouteAndStatus(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(NewMetricsMiddleware(m).Handle)
	e.GET("/trips/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/abc", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	expected := `
# HELP triptrack_http_requests_total Total number of HTTP requests.
# TYPE triptrack_http_requests_total counter
triptrack_http_requests_total{method="GET",path="/trips/:id",status="418"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "triptrack_http_requests_total"))
}

func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	e := echo.New()
	e.Use(NewMetricsMiddleware(nil).Handle)
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
