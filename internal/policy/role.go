package policy

import "github.com/google/uuid"

// Role is the closed set of actor roles. Containment is strict:
// platform_admin > agency_admin > agent > customer.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleAgencyAdmin   Role = "agency_admin"
	RoleAgent         Role = "agent"
	RoleCustomer      Role = "customer"
)

// Rank returns the position of a role in the containment order.
// Unknown roles rank below customer.
func Rank(r Role) int {
	switch r {
	case RolePlatformAdmin:
		return 3
	case RoleAgencyAdmin:
		return 2
	case RoleAgent:
		return 1
	case RoleCustomer:
		return 0
	default:
		return -1
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return Rank(r) >= 0
}

// Actor is the authenticated user as seen by the policy engine.
type Actor struct {
	ID        uuid.UUID
	Role      Role
	AgencyID  *uuid.UUID
	Superuser bool
}

// IsPlatformAdmin reports whether the actor bypasses all tenant scoping.
// The superuser flag is a synonym for platform_admin rank, not a separate rank.
func (a Actor) IsPlatformAdmin() bool {
	return a.Superuser || a.Role == RolePlatformAdmin
}

// Allows reports whether the actor may pass a check written for the given
// roles. A platform admin passes every check regardless of which roles the
// check names.
func (a Actor) Allows(required ...Role) bool {
	if a.IsPlatformAdmin() {
		return true
	}
	for _, r := range required {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Agency returns the actor's agency ID, or uuid.Nil when none is assigned.
func (a Actor) Agency() uuid.UUID {
	if a.AgencyID == nil {
		return uuid.Nil
	}
	return *a.AgencyID
}
