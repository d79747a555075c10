package errors

import (
	"fmt"
	"net/http"
	"strconv"

	"triptrack/internal/domain/entity"
	"triptrack/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface.
// Copies made by WithDetails still match their origin under errors.Is.
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
	origin    *BaseError
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details == "" {
		return e.message
	}

	return e.message + ": " + e.details
}

// Is matches any copy derived from the same predefined error.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.root() == e.root()
}

func (e *BaseError) root() *BaseError {
	if e.origin != nil {
		return e.origin
	}

	return e
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
		origin:    e.root(),
	}
}

// Predefined error types
var (
	// User-related errors
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"User already exists",
		"",
	)

	// Authentication-related errors. Every credential failure renders the same code and message
	// so a caller cannot tell an unknown identifier from a wrong password or a locked account.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid credentials",
		"",
	)

	// ErrAccountLocked carries the lock expiry in Details; the HTTP layer never renders details for 401.
	ErrAccountLocked = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid credentials",
		"",
	)

	ErrRefreshTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"ACCESS_DENIED",
		"Access denied",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Authentication required",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Password processing failed",
		"",
	)

	ErrTokenGenerationFailed = NewBaseError(
		http.StatusInternalServerError,
		"TOKEN_GENERATION_FAILED",
		"Token generation failed",
		"",
	)

	// Trip-related errors
	ErrTripNotFound = NewBaseError(
		http.StatusNotFound,
		"TRIP_NOT_FOUND",
		"Trip not found",
		"",
	)

	ErrTripOwnershipViolation = NewBaseError(
		http.StatusForbidden,
		"TRIP_OWNERSHIP_VIOLATION",
		"You do not own this trip",
		"",
	)

	// ErrVersionConflict and ErrInvalidTransition are the kinds matched by errors.Is;
	// the concrete values returned are *VersionConflictError and *InvalidTransitionError.
	ErrVersionConflict = NewBaseError(
		http.StatusConflict,
		"VERSION_CONFLICT",
		"Trip was modified by another request",
		"",
	)

	ErrInvalidTransition = NewBaseError(
		http.StatusUnprocessableEntity,
		"INVALID_TRANSITION",
		"Invalid status transition",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"Database transaction failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	ErrTooManyRequests = NewBaseError(
		http.StatusTooManyRequests,
		"TOO_MANY_REQUESTS",
		"Too many requests",
		"",
	)
)

// VersionConflictError reports that the caller's expected version is stale.
type VersionConflictError struct {
	CurrentVersion int
}

// NewVersionConflictError creates a version conflict naming the version currently stored.
func NewVersionConflictError(current int) *VersionConflictError {
	return &VersionConflictError{CurrentVersion: current}
}

func (e *VersionConflictError) Error() string {
	return "version mismatch: current version is " + strconv.Itoa(e.CurrentVersion)
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

func (e *VersionConflictError) HTTPCode() int     { return ErrVersionConflict.HTTPCode() }
func (e *VersionConflictError) ErrorCode() string { return ErrVersionConflict.ErrorCode() }
func (e *VersionConflictError) Message() string {
	return fmt.Sprintf("Version mismatch. Current version is %d", e.CurrentVersion)
}
func (e *VersionConflictError) Details() string { return strconv.Itoa(e.CurrentVersion) }

// InvalidTransitionError reports a status change that is not an edge of the trip lifecycle.
type InvalidTransitionError struct {
	From entity.TripStatus
	To   entity.TripStatus
}

// NewInvalidTransitionError creates an error naming the rejected from->to pair.
func NewInvalidTransitionError(from, to entity.TripStatus) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func (e *InvalidTransitionError) HTTPCode() int     { return ErrInvalidTransition.HTTPCode() }
func (e *InvalidTransitionError) ErrorCode() string { return ErrInvalidTransition.ErrorCode() }
func (e *InvalidTransitionError) Message() string {
	return fmt.Sprintf("Invalid status transition from %s to %s", e.From, e.To)
}
func (e *InvalidTransitionError) Details() string { return string(e.From) + "->" + string(e.To) }

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error to errors.Is / errors.As.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
