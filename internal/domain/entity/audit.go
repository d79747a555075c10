// Package entity contains the core business objects of the project.
package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates the security-relevant events that are recorded.
type AuditAction string

const (
	AuditActionUserRegistered AuditAction = "USER_REGISTERED"
	AuditActionLoginSuccess   AuditAction = "LOGIN_SUCCESS"
	AuditActionLoginFailed    AuditAction = "LOGIN_FAILED"
	AuditActionAccountLocked  AuditAction = "ACCOUNT_LOCKED"
	AuditActionTokenRefresh   AuditAction = "TOKEN_REFRESH"
	AuditActionLogout         AuditAction = "LOGOUT"
	AuditActionStatusUpdated  AuditAction = "STATUS_UPDATED"
)

func (a AuditAction) String() string {
	return string(a)
}

// AuditEntityTrip is the entity type recorded for trip transitions.
const AuditEntityTrip = "Trip"

// AuditLog is one immutable entry of the audit trail.
// Metadata and the state snapshots are stored as opaque JSON documents.
type AuditLog struct {
	ID            string // ULID; sorts by creation time.
	Action        AuditAction
	UserID        *uuid.UUID
	Metadata      json.RawMessage
	IPAddress     string
	UserAgent     string
	EntityType    string
	EntityID      string
	PreviousState json.RawMessage
	NewState      json.RawMessage
	CreatedAt     time.Time
}
