package errors

import (
	"net/http"
	"testing"

	"triptrack/internal/domain/entity"
	"triptrack/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_WithDetailsKeepsIdentity(t *testing.T) {
	locked := ErrAccountLocked.WithDetails("2026-01-01T00:15:00Z")

	assert.True(t, errors.Is(locked, ErrAccountLocked))
	assert.False(t, errors.Is(locked, ErrInvalidCredentials))
	assert.Equal(t, "2026-01-01T00:15:00Z", locked.Details())
	assert.Empty(t, ErrAccountLocked.Details())
}

func TestBaseError_IsSurvivesWrapping(t *testing.T) {
	err := errors.Wrap(ErrTripNotFound.WithDetails("x"), "load trip")

	assert.True(t, errors.Is(err, ErrTripNotFound))

	var appErr AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode())
}

func TestCredentialFailuresLookAlike(t *testing.T) {
	assert.Equal(t, ErrInvalidCredentials.ErrorCode(), ErrAccountLocked.ErrorCode())
	assert.Equal(t, ErrInvalidCredentials.Message(), ErrAccountLocked.Message())
	assert.Equal(t, http.StatusUnauthorized, ErrAccountLocked.HTTPCode())
}

func TestVersionConflictError(t *testing.T) {
	err := errors.Wrap(NewVersionConflictError(3), "update trip status")

	assert.True(t, errors.Is(err, ErrVersionConflict))
	assert.False(t, errors.Is(err, ErrInvalidTransition))

	var conflict *VersionConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, 3, conflict.CurrentVersion)
	assert.Equal(t, http.StatusConflict, conflict.HTTPCode())
	assert.Equal(t, "Version mismatch. Current version is 3", conflict.Message())
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError(entity.TripStatusSubmitted, entity.TripStatusPaid)

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, "SUBMITTED->PAID", err.Details())
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPCode())
	assert.Contains(t, err.Error(), "from SUBMITTED to PAID")
}
