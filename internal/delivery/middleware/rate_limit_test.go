package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"triptrack/config"
	domainerrors "triptrack/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitConfig(enabled bool, perMinute, burst int) *config.Config {
	cfg := &config.Config{}
	cfg.HTTP.RateLimit = &config.RateLimitConfig{Enabled: enabled, RequestsPerMinute: perMinute, Burst: burst}

	return cfg
}

func serveFrom(t *testing.T, m *RateLimitMiddleware, ip string) error {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	c := e.NewContext(req, httptest.NewRecorder())

	return m.Handle(func(echo.Context) error { return nil })(c)
}

func TestRateLimitMiddleware_PerClientBucket(t *testing.T) {
	m := NewRateLimitMiddleware(newRateLimitConfig(true, 10, 3), newDiscardLogger())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for range 3 {
		require.NoError(t, serveFrom(t, m, "192.0.2.1"))
	}

	assert.ErrorIs(t, serveFrom(t, m, "192.0.2.1"), domainerrors.ErrTooManyRequests)
	assert.NoError(t, serveFrom(t, m, "192.0.2.2"))

	// 10 per minute refills one token every six seconds.
	now = now.Add(6 * time.Second)
	assert.NoError(t, serveFrom(t, m, "192.0.2.1"))
	assert.ErrorIs(t, serveFrom(t, m, "192.0.2.1"), domainerrors.ErrTooManyRequests)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	m := NewRateLimitMiddleware(newRateLimitConfig(false, 1, 1), newDiscardLogger())

	for range 5 {
		assert.NoError(t, serveFrom(t, m, "192.0.2.1"))
	}
}

func TestRateLimitMiddleware_EvictIdle(t *testing.T) {
	m := NewRateLimitMiddleware(newRateLimitConfig(true, 10, 1), newDiscardLogger())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, serveFrom(t, m, "192.0.2.1"))
	now = now.Add(limiterIdleTTL / 2)
	require.NoError(t, serveFrom(t, m, "192.0.2.2"))

	now = now.Add(limiterIdleTTL/2 + time.Second)
	m.evictIdle()

	assert.NotContains(t, m.clients, "192.0.2.1")
	assert.Contains(t, m.clients, "192.0.2.2")
}
