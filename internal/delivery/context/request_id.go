// Package context carries per-request values between middleware, handlers and use cases.
package context

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// ContextKey names values stored in echo.Context.
type ContextKey string

const (
	KeyRequestID ContextKey = "request_id"

	HeaderXRequestID = "X-Request-Id"
)

type requestScopeKey struct{}

// requestScope is what the request-id middleware attaches to context.Context.
type requestScope struct {
	id     string
	logger *slog.Logger
}

// SetRequestID stores the request id in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// GetRequestID returns the id set by the request-id middleware, falling back to the
// response header, or "" when neither is present.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(string(KeyRequestID)).(string); ok && id != "" {
		return id
	}

	return c.Response().Header().Get(HeaderXRequestID)
}

// WithRequestScope binds the request id and its logger to ctx.
func WithRequestScope(ctx context.Context, requestID string, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, requestScopeKey{}, requestScope{id: requestID, logger: logger})
}

func scopeFrom(ctx context.Context) (requestScope, bool) {
	scope, ok := ctx.Value(requestScopeKey{}).(requestScope)

	return scope, ok
}

func GetRequestIDFromContext(ctx context.Context) string {
	scope, _ := scopeFrom(ctx)

	return scope.id
}

// GetLogger returns the request logger, or nil outside a request.
func GetLogger(ctx context.Context) *slog.Logger {
	scope, _ := scopeFrom(ctx)

	return scope.logger
}

func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := GetLogger(ctx); logger != nil {
		return logger
	}

	return fallback
}
