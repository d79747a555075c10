// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"triptrack/internal/domain/entity"

	"github.com/google/uuid"
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID returns errors.ErrUserNotFound when no row matches.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByIDForUpdate reads the user and holds a row lock until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByIdentifier matches a normalized email or an E.164 phone number.
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)

	// FindByIdentifiers returns the first user owning either the email or the phone.
	// Empty arguments are ignored; errors.ErrUserNotFound when nothing matches.
	FindByIdentifiers(ctx context.Context, email, phone string) (*entity.User, error)

	// Create persists a new user. Unique violations map to errors.ErrUserAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// UpdateLoginState writes the failure counter and lock expiry.
	UpdateLoginState(ctx context.Context, id uuid.UUID, failedAttempts int, lockUntil *time.Time) error

	// RecordLoginSuccess resets the counter, clears the lock and stores the new refresh digest.
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, refreshTokenHash string) error

	// SwapRefreshTokenHash replaces expected with next only if expected is still stored.
	// It reports false when another request rotated or cleared the digest first.
	SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)

	// ClearRefreshTokenHash removes the stored digest. It is idempotent.
	ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error
}
