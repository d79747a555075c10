// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account together with its credential and session state.
type User struct {
	ID                  uuid.UUID         // The Global Unique Identifier (GUID) for the user.
	Email               string            // Normalised login email; empty when the user registered by phone only.
	Phone               string            // E.164 login phone number; empty when the user registered by email only.
	PasswordHash        string            // bcrypt hash of the password. Never logged.
	FailedLoginAttempts int               // Consecutive failed logins since the last success or lock.
	LockUntil           *time.Time        // Logins are refused while this is in the future.
	RefreshTokenHash    string            // Digest of the single valid refresh token; empty means no active session.
	Role                Role              // Embedded in issued tokens.
	VerificationLevel   VerificationLevel // Embedded in issued tokens.
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether login is currently refused for the user.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// HasActiveSession reports whether a refresh token is currently valid for the user.
func (u *User) HasActiveSession() bool {
	return u.RefreshTokenHash != ""
}
