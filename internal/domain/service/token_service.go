package service

import (
	"time"

	"triptrack/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens inside the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims defines the custom claims for the JWT tokens.
// UserID is carried on the wire as the registered "sub" claim.
type Claims struct {
	UserID            uuid.UUID                `json:"-"`
	Role              entity.Role              `json:"role"`
	VerificationLevel entity.VerificationLevel `json:"verificationLevel"`
	Type              TokenType                `json:"type"`
	jwt.RegisteredClaims
}

// TokenSubject is the identity embedded in a token pair.
type TokenSubject struct {
	UserID            uuid.UUID
	Role              entity.Role
	VerificationLevel entity.VerificationLevel
}

// TokenPair is an access token and a refresh token issued together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // Lifetime of the access token.
}

// TokenService defines the interface for generating and validating JWTs.
// Access and refresh tokens are signed with distinct secrets, and every token carries a unique ID
// so two pairs issued in the same second still differ.
type TokenService interface {
	// GenerateTokens creates a new access token and refresh token for the subject.
	GenerateTokens(subject TokenSubject) (*TokenPair, error)

	// ValidateAccessToken verifies signature, expiry and type of an access token.
	ValidateAccessToken(tokenString string) (*Claims, error)

	// ValidateRefreshToken verifies signature, expiry and type of a refresh token.
	ValidateRefreshToken(tokenString string) (*Claims, error)

	// HashRefreshToken returns the digest stored in place of the raw refresh token.
	HashRefreshToken(token string) string

	// RefreshTokenMatches compares a raw token against a stored digest in constant time.
	RefreshTokenMatches(token, digest string) bool
}
