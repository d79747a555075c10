package middleware

import (
	"triptrack/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records in-flight requests, totals and latency per route.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		done := m.metrics.RequestStarted()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		// The route template keeps label cardinality bounded; unmatched paths share one label.
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		done(c.Request().Method, path, c.Response().Status)

		return nil
	}
}
