package middleware

import (
	"log/slog"

	deliverycontext "triptrack/internal/delivery/context"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// TripParam is the path parameter that holds the trip id.
const TripParam = "id"

// OwnershipMiddlewareParams holds dependencies for OwnershipMiddleware, injected by Fx.
type OwnershipMiddlewareParams struct {
	fx.In

	TripUC usecase.TripUsecase
	Logger *slog.Logger
}

// OwnershipMiddleware restricts trip routes to the trip's organizer.
type OwnershipMiddleware struct {
	tripUC usecase.TripUsecase
	logger *slog.Logger
}

func NewOwnershipMiddleware(params OwnershipMiddlewareParams) *OwnershipMiddleware {
	return &OwnershipMiddleware{tripUC: params.TripUC, logger: params.Logger}
}

// RequireTripOwner loads the trip named by the :id parameter and stores it in the context.
// A missing trip is 404; a trip organized by someone else is 403.
// It must be used AFTER the Authenticate middleware.
func (m *OwnershipMiddleware) RequireTripOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, ok := deliverycontext.GetPrincipal(c)
		if !ok {
			return domainerrors.ErrUnauthorized
		}

		tripID, err := uuid.Parse(c.Param(TripParam))
		if err != nil {
			return domainerrors.ErrTripNotFound
		}

		trip, err := m.tripUC.GetTrip(c.Request().Context(), tripID)
		if err != nil {
			return err
		}

		if trip.OrganizerID != principal.UserID {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Warn("Trip ownership denied",
				slog.Any("userID", principal.UserID),
				slog.Any("tripID", trip.ID),
			)

			return domainerrors.ErrTripOwnershipViolation
		}

		deliverycontext.SetTrip(c, trip)

		return next(c)
	}
}
