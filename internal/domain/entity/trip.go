// Package entity contains the core business objects of the project.
package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TripStatus is a stage of the trip lifecycle.
type TripStatus string

const (
	TripStatusDraft     TripStatus = "DRAFT"
	TripStatusReview    TripStatus = "REVIEW"
	TripStatusSubmitted TripStatus = "SUBMITTED"
	TripStatusVerified  TripStatus = "VERIFIED"
	TripStatusPaid      TripStatus = "PAID"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// InitialTripVersion is the version a trip is created with.
const InitialTripVersion = 1

// tripTransitions is the lifecycle graph. Statuses without an entry are terminal.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusDraft:     {TripStatusReview, TripStatusCancelled},
	TripStatusReview:    {TripStatusSubmitted, TripStatusCancelled},
	TripStatusSubmitted: {TripStatusVerified, TripStatusCancelled},
	TripStatusVerified:  {TripStatusPaid, TripStatusCancelled},
	TripStatusPaid:      {TripStatusCompleted, TripStatusCancelled},
	TripStatusCompleted: nil,
	TripStatusCancelled: nil,
}

// String returns the string representation of the TripStatus.
func (s TripStatus) String() string {
	return string(s)
}

// IsValid checks if the TripStatus is one of the lifecycle statuses.
func (s TripStatus) IsValid() bool {
	_, ok := tripTransitions[s]

	return ok
}

// AllowedNext returns the statuses reachable from s in one step.
// The result is a copy; unknown and terminal statuses yield an empty slice.
func AllowedNext(s TripStatus) []TripStatus {
	return slices.Clone(tripTransitions[s])
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to TripStatus) bool {
	return slices.Contains(tripTransitions[from], to)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s TripStatus) bool {
	return s.IsValid() && len(tripTransitions[s]) == 0
}

// Trip is the lifecycle-tracked resource. Only Status and Version change after creation.
type Trip struct {
	ID          uuid.UUID
	OrganizerID uuid.UUID // Owning user; immutable.
	Status      TripStatus
	Version     int // Incremented by exactly one on every accepted status change.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot captures the guarded fields for the audit trail.
func (t *Trip) Snapshot() TripSnapshot {
	return TripSnapshot{Status: t.Status, Version: t.Version}
}

// TripSnapshot is the {status, version} pair recorded before and after a transition.
type TripSnapshot struct {
	Status  TripStatus `json:"status"`
	Version int        `json:"version"`
}
