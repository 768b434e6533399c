package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/policy"
)

type User struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	AgencyID     *uuid.UUID  `json:"agency_id,omitempty" db:"agency_id"`
	Role         policy.Role `json:"role" db:"role"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	FirstName    string      `json:"first_name,omitempty" db:"first_name"`
	LastName     string      `json:"last_name,omitempty" db:"last_name"`
	PasswordHash string      `json:"-" db:"password_hash"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	IsStaff      bool        `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool        `json:"is_superuser" db:"is_superuser"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

func (u *User) EntityID() uuid.UUID     { return u.ID }
func (u *User) TenantRef() *uuid.UUID   { return u.AgencyID }
func (u *User) OwnerRef() *uuid.UUID    { return &u.ID }
func (u *User) CustomerRef() *uuid.UUID { return &u.ID }

// Actor projects the user into the policy engine's view of a request.
func (u *User) Actor() policy.Actor {
	return policy.Actor{
		ID:        u.ID,
		Role:      u.Role,
		AgencyID:  u.AgencyID,
		Superuser: u.IsSuperuser,
	}
}
