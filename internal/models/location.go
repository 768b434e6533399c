package models

import "github.com/google/uuid"

type City struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

type District struct {
	ID     uuid.UUID `json:"id" db:"id"`
	CityID uuid.UUID `json:"city_id" db:"city_id"`
	Name   string    `json:"name" db:"name"`
}
