// Package policy is the role capability table consulted before any trip operation.
package policy

import (
	"slices"

	"triptrack/internal/domain/entity"
)

// Resource is a kind of object a capability applies to.
type Resource string

// Action is an operation on a Resource.
type Action string

const (
	ResourceTrip Resource = "trip"

	ActionCreate       Action = "create"
	ActionRead         Action = "read"
	ActionUpdateStatus Action = "update_status"
)

// Capability names a permitted resource:action pair, e.g. "trip:update_status".
type Capability string

// NewCapability joins resource and action.
func NewCapability(resource Resource, action Action) Capability {
	return Capability(string(resource) + ":" + string(action))
}

var (
	CapTripCreate       = NewCapability(ResourceTrip, ActionCreate)
	CapTripRead         = NewCapability(ResourceTrip, ActionRead)
	CapTripUpdateStatus = NewCapability(ResourceTrip, ActionUpdateStatus)
)

var capabilities = map[entity.Role][]Capability{
	entity.RoleOrganizer: {CapTripCreate, CapTripRead, CapTripUpdateStatus},
	entity.RoleTraveler:  {CapTripRead},
	entity.RoleAdmin:     {CapTripRead},
}

// CanAct reports whether role holds the capability for action on resource.
// Unknown roles hold nothing.
func CanAct(role entity.Role, resource Resource, action Action) bool {
	return slices.Contains(capabilities[role], NewCapability(resource, action))
}
