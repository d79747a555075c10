// Package entity contains the core business objects of the project.
package entity

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleOrganizer owns trips and drives their lifecycle.
	RoleOrganizer Role = "ORGANIZER"
	// RoleTraveler takes part in trips.
	RoleTraveler Role = "TRAVELER"
	// RoleAdmin operates the platform.
	RoleAdmin Role = "ADMIN"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleOrganizer, RoleTraveler, RoleAdmin:
		return true
	default:
		return false
	}
}

// SelfAssignable reports whether a user may pick this role when registering.
// ADMIN is granted out of band.
func (r Role) SelfAssignable() bool {
	return r == RoleOrganizer || r == RoleTraveler
}

// VerificationLevel records how much of a user's identity has been verified.
type VerificationLevel string

const (
	VerificationNone  VerificationLevel = "NONE"
	VerificationEmail VerificationLevel = "EMAIL"
	VerificationPhone VerificationLevel = "PHONE"
	VerificationFull  VerificationLevel = "FULL"
)

func (v VerificationLevel) String() string {
	return string(v)
}

func (v VerificationLevel) IsValid() bool {
	switch v {
	case VerificationNone, VerificationEmail, VerificationPhone, VerificationFull:
		return true
	default:
		return false
	}
}
