package usecase

import (
	"context"

	"triptrack/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateTripStatusInput names the version the caller last observed.
type UpdateTripStatusInput struct {
	TripID          uuid.UUID
	Status          entity.TripStatus
	ExpectedVersion int
	ActingUserID    uuid.UUID
	IPAddress       string
	UserAgent       string
}

// TripUsecase drives trips through their lifecycle. Role and ownership are checked by the caller.
type TripUsecase interface {
	CreateTrip(ctx context.Context, organizerID uuid.UUID) (*entity.Trip, error)
	GetTrip(ctx context.Context, id uuid.UUID) (*entity.Trip, error)
	UpdateStatus(ctx context.Context, input UpdateTripStatusInput) (*entity.Trip, error)

	// ListTripAudit returns the trip's recorded transitions, oldest first.
	ListTripAudit(ctx context.Context, tripID uuid.UUID) ([]*entity.AuditLog, error)
}
