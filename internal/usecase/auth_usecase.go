// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"triptrack/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user. At least one of Email and Phone is set.
type RegisterInput struct {
	Email    string
	Phone    string
	Password string
	Role     entity.Role
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Identifier string // Email or phone number.
	Password   string
	IPAddress  string
	UserAgent  string
}

// RefreshInput carries the refresh token presented by the client.
type RefreshInput struct {
	RefreshToken string
	IPAddress    string
	UserAgent    string
}

// LogoutInput identifies the session owner taken from the access token.
type LogoutInput struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's id.
type RegisterOutput struct {
	Message string
	UserID  uuid.UUID
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type LogoutOutput struct {
	Message string
}

// AuthUsecase manages credentials and the single active session of each user.
type AuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, input LogoutInput) (*LogoutOutput, error)

	// ListAccountAudit returns the security events recorded against a user, oldest first.
	ListAccountAudit(ctx context.Context, userID uuid.UUID) ([]*entity.AuditLog, error)
}
