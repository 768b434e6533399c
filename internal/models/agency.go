package models

import (
	"time"

	"github.com/google/uuid"
)

type Agency struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Email       string    `json:"email,omitempty" db:"email"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	City        string    `json:"city" db:"city"`
	Address     string    `json:"address,omitempty" db:"address"`
	Description string    `json:"description,omitempty" db:"description"`
	Verified    bool      `json:"verified" db:"verified"`
	LogoURL     string    `json:"logo_url,omitempty" db:"logo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (a *Agency) EntityID() uuid.UUID { return a.ID }

// An agency is its own tenant, so an agency admin sees exactly their agency
// in the cockpit.
func (a *Agency) TenantRef() *uuid.UUID { return &a.ID }
