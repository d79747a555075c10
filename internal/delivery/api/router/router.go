// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"triptrack/config"
	"triptrack/internal/delivery/api/middleware"
	"triptrack/internal/delivery/api/router/handler"
	deliverymiddleware "triptrack/internal/delivery/middleware"
	"triptrack/internal/domain/policy"
	"triptrack/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	TripHandler         *handler.TripHandler
	AuthMiddleware      *middleware.AuthMiddleware
	OwnershipMiddleware *middleware.OwnershipMiddleware
	RateLimitMiddleware *deliverymiddleware.RateLimitMiddleware
	Metrics             *metrics.Metrics `optional:"true"`
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler *handler.AuthHandler
	tripHandler *handler.TripHandler
	auth        *middleware.AuthMiddleware
	ownership   *middleware.OwnershipMiddleware
	rateLimit   *deliverymiddleware.RateLimitMiddleware
	metrics     *metrics.Metrics
	config      *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler: params.AuthHandler,
		tripHandler: params.TripHandler,
		auth:        params.AuthMiddleware,
		ownership:   params.OwnershipMiddleware,
		rateLimit:   params.RateLimitMiddleware,
		metrics:     params.Metrics,
		config:      params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Operational endpoints are not rate limited so probes and scrapers are never throttled.
	e.GET("/health", handler.HealthCheck)
	if r.metrics != nil && r.config.Metrics != nil && r.config.Metrics.Enabled {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(r.metrics.Handler()))
	}

	authGroup := e.Group("/auth", r.rateLimit.Handle)
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/logout", r.authHandler.Logout, r.auth.Authenticate)
	}

	// API v1 routes
	apiV1 := e.Group("/api/v1", r.rateLimit.Handle, r.auth.Authenticate)

	apiV1.GET("/me/audit", r.authHandler.GetAccountAudit)

	tripsGroup := apiV1.Group("/trips")
	{
		tripsGroup.POST("", r.tripHandler.CreateTrip,
			r.auth.RequireCapability(policy.ResourceTrip, policy.ActionCreate))
		tripsGroup.GET("/:"+middleware.TripParam, r.tripHandler.GetTrip,
			r.auth.RequireCapability(policy.ResourceTrip, policy.ActionRead), r.ownership.RequireTripOwner)
		tripsGroup.PATCH("/:"+middleware.TripParam+"/status", r.tripHandler.UpdateStatus,
			r.auth.RequireCapability(policy.ResourceTrip, policy.ActionUpdateStatus), r.ownership.RequireTripOwner)
		tripsGroup.GET("/:"+middleware.TripParam+"/audit", r.tripHandler.GetTripAudit,
			r.auth.RequireCapability(policy.ResourceTrip, policy.ActionRead), r.ownership.RequireTripOwner)
	}
}
