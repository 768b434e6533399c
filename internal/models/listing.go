package models

import (
	"time"

	"github.com/google/uuid"
)

type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
)

type ListingCategory string

const (
	CategoryHouse     ListingCategory = "house"
	CategoryApartment ListingCategory = "apartment"
	CategoryLand      ListingCategory = "land"
	CategoryOffice    ListingCategory = "office"
	CategoryShop      ListingCategory = "shop"
)

func ValidListingType(t ListingType) bool {
	return t == ListingRent || t == ListingSale
}

func ValidCategory(c ListingCategory) bool {
	switch c {
	case CategoryHouse, CategoryApartment, CategoryLand, CategoryOffice, CategoryShop:
		return true
	}
	return false
}

type Listing struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	AgencyID    *uuid.UUID      `json:"agency_id,omitempty" db:"agency_id"`
	OwnerID     *uuid.UUID      `json:"owner_id,omitempty" db:"owner_id"`
	Title       string          `json:"title" db:"title"`
	Slug        string          `json:"slug" db:"slug"`
	Category    ListingCategory `json:"category" db:"category"`
	ListingType ListingType     `json:"listing_type" db:"listing_type"`
	Price       int64           `json:"price" db:"price"`
	Currency    string          `json:"currency" db:"currency"`
	Bedrooms    *int            `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms   *int            `json:"bathrooms,omitempty" db:"bathrooms"`
	Surface     *int            `json:"surface,omitempty" db:"surface"`
	City        string          `json:"city" db:"city"`
	Address     string          `json:"address,omitempty" db:"address"`
	Description string          `json:"description,omitempty" db:"description"`
	Published   bool            `json:"published" db:"published"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`

	Photos []ListingPhoto `json:"photos,omitempty" db:"-"`
}

func (l *Listing) EntityID() uuid.UUID   { return l.ID }
func (l *Listing) TenantRef() *uuid.UUID { return l.AgencyID }
func (l *Listing) OwnerRef() *uuid.UUID  { return l.OwnerID }

type ListingPhoto struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ListingID uuid.UUID `json:"listing_id" db:"listing_id"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	IsCover   bool      `json:"is_cover" db:"is_cover"`
	Position  int       `json:"position" db:"position"`
}
