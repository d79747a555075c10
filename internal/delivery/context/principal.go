package context

import (
	"triptrack/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// KeyPrincipal is the key for storing the authenticated caller in echo.Context.
	KeyPrincipal ContextKey = "principal"

	// KeyTrip is the key for storing the trip loaded by the ownership check.
	KeyTrip ContextKey = "trip"
)

// Principal is the caller identity taken from a verified access token.
type Principal struct {
	UserID            uuid.UUID
	Role              entity.Role
	VerificationLevel entity.VerificationLevel
}

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(string(KeyPrincipal), p)
}

// GetPrincipal returns the caller set by the authentication middleware.
func GetPrincipal(c echo.Context) (Principal, bool) {
	p, ok := c.Get(string(KeyPrincipal)).(Principal)

	return p, ok
}

func SetTrip(c echo.Context, trip *entity.Trip) {
	c.Set(string(KeyTrip), trip)
}

// GetTrip returns the trip loaded by the ownership middleware, if any.
func GetTrip(c echo.Context) (*entity.Trip, bool) {
	trip, ok := c.Get(string(KeyTrip)).(*entity.Trip)

	return trip, ok && trip != nil
}
