package repository

import (
	"context"

	"triptrack/internal/domain/entity"

	"github.com/google/uuid"
)

// TripRepository persists trips and guards status changes with optimistic versioning.
type TripRepository interface {
	Create(ctx context.Context, trip *entity.Trip) error

	// FindByID returns errors.ErrTripNotFound when no row matches.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error)

	// UpdateStatus sets status and increments version only when the stored version equals
	// expectedVersion. It reports false when no row matched, leaving the trip untouched.
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status entity.TripStatus) (bool, error)
}
