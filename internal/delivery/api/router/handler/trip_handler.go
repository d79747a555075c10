package handler

import (
	"log/slog"
	"net/http"
	"time"

	"triptrack/internal/delivery/api/middleware"
	"triptrack/internal/delivery/api/response"
	deliverycontext "triptrack/internal/delivery/context"
	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/errors"
	"triptrack/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// TripHandlerParams holds dependencies for TripHandler, injected by Fx.
type TripHandlerParams struct {
	fx.In

	TripUC usecase.TripUsecase
	Logger *slog.Logger
}

// TripHandler serves the trip lifecycle endpoints.
type TripHandler struct {
	tripUC usecase.TripUsecase
	logger *slog.Logger
}

// NewTripHandler is the constructor for TripHandler.
func NewTripHandler(params TripHandlerParams) *TripHandler {
	return &TripHandler{
		tripUC: params.TripUC,
		logger: params.Logger,
	}
}

// UpdateStatusRequest names the target status and the version the client last saw.
type UpdateStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int    `json:"version" validate:"required,min=1"`
}

// TripResponse is the public view of a trip.
type TripResponse struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizerId"`
	Status      string    `json:"status"`
	Version     int       `json:"version"`
	AllowedNext []string  `json:"allowedNext"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateTrip starts a new DRAFT trip organized by the caller.
func (h *TripHandler) CreateTrip(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	trip, err := h.tripUC.CreateTrip(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip returns the trip loaded by the ownership middleware.
func (h *TripHandler) GetTrip(c echo.Context) error {
	trip, ok := deliverycontext.GetTrip(c)
	if !ok {
		return domainerrors.ErrTripNotFound
	}

	return response.Success(c, http.StatusOK, toTripResponse(trip))
}

// UpdateStatus moves the trip one step along its lifecycle.
func (h *TripHandler) UpdateStatus(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}
	trip, ok := deliverycontext.GetTrip(c)
	if !ok {
		return domainerrors.ErrTripNotFound
	}

	var req UpdateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.tripUC.UpdateStatus(c.Request().Context(), usecase.UpdateTripStatusInput{
		TripID:          trip.ID,
		Status:          entity.TripStatus(req.Status),
		ExpectedVersion: req.Version,
		ActingUserID:    userID,
		IPAddress:       c.RealIP(),
		UserAgent:       c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toTripResponse(updated))
}

// GetTripAudit lists the status history of the trip loaded by the ownership middleware.
func (h *TripHandler) GetTripAudit(c echo.Context) error {
	trip, ok := deliverycontext.GetTrip(c)
	if !ok {
		return domainerrors.ErrTripNotFound
	}

	logs, err := h.tripUC.ListTripAudit(c.Request().Context(), trip.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAuditResponses(logs))
}

func toTripResponse(trip *entity.Trip) TripResponse {
	next := entity.AllowedNext(trip.Status)
	allowed := make([]string, 0, len(next))
	for _, s := range next {
		allowed = append(allowed, s.String())
	}

	return TripResponse{
		ID:          trip.ID.String(),
		OrganizerID: trip.OrganizerID.String(),
		Status:      trip.Status.String(),
		Version:     trip.Version,
		AllowedNext: allowed,
		CreatedAt:   trip.CreatedAt,
		UpdatedAt:   trip.UpdatedAt,
	}
}
