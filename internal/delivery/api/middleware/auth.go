package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "triptrack/internal/delivery/context"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/policy"
	"triptrack/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const bearerPrefix = "Bearer "

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
	Logger       *slog.Logger
}

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: params.TokenService, logger: params.Logger}
}

// Authenticate verifies the Bearer access token and stores the caller as the principal.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(authHeader, bearerPrefix)
		if !ok || strings.TrimSpace(tokenString) == "" {
			return domainerrors.ErrUnauthorized
		}

		claims, err := m.tokenSvc.ValidateAccessToken(strings.TrimSpace(tokenString))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Debug("Access token rejected", slog.Any("error", err))

			return domainerrors.ErrUnauthorized
		}

		deliverycontext.SetPrincipal(c, deliverycontext.Principal{
			UserID:            claims.UserID,
			Role:              claims.Role,
			VerificationLevel: claims.VerificationLevel,
		})

		return next(c)
	}
}

// RequireCapability only lets through callers whose role may perform action on resource.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireCapability(resource policy.Resource, action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := deliverycontext.GetPrincipal(c)
			if !ok {
				return domainerrors.ErrUnauthorized
			}

			if !policy.CanAct(principal.Role, resource, action) {
				deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Warn("Capability denied",
					slog.Any("userID", principal.UserID),
					slog.String("role", principal.Role.String()),
					slog.String("capability", string(policy.NewCapability(resource, action))),
				)

				return domainerrors.ErrForbidden
			}

			return next(c)
		}
	}
}

// GetUserID returns the authenticated caller's id.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	principal, ok := deliverycontext.GetPrincipal(c)

	return principal.UserID, ok
}
