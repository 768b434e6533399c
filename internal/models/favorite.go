package models

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"user_id" db:"user_id"`
	ListingID uuid.UUID  `json:"listing_id" db:"listing_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	Listing *Listing `json:"listing,omitempty" db:"-"`
}

func (f *Favorite) EntityID() uuid.UUID     { return f.ID }
func (f *Favorite) CustomerRef() *uuid.UUID { return f.UserID }
