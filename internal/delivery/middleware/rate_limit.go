package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"triptrack/config"
	deliverycontext "triptrack/internal/delivery/context"
	domainerrors "triptrack/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 5 * time.Minute
	limiterSweepInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per client IP.
type RateLimitMiddleware struct {
	enabled bool
	limit   rate.Limit
	burst   int
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimitMiddleware sizes the buckets from http.rateLimit.
func NewRateLimitMiddleware(cfg *config.Config, logger *slog.Logger) *RateLimitMiddleware {
	rl := cfg.HTTP.RateLimit
	if rl == nil {
		rl = &config.RateLimitConfig{}
	}

	return &RateLimitMiddleware{
		enabled: rl.Enabled,
		limit:   rate.Every(time.Minute / time.Duration(max(rl.RequestsPerMinute, 1))),
		burst:   max(rl.Burst, 1),
		now:     time.Now,
		logger:  logger,
		clients: make(map[string]*clientLimiter),
	}
}

func (m *RateLimitMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.enabled {
			return next(c)
		}

		ip := c.RealIP()
		if !m.allow(ip) {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Warn("Rate limit exceeded",
				slog.String("remote_ip", ip),
				slog.String("path", c.Path()),
			)

			return domainerrors.ErrTooManyRequests
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[ip] = client
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than limiterIdleTTL until ctx is done.
func (m *RateLimitMiddleware) Sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *RateLimitMiddleware) evictIdle() {
	cutoff := m.now().Add(-limiterIdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for ip, client := range m.clients {
		if client.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}
