package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type SavedSearch struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    *uuid.UUID      `json:"user_id" db:"user_id"`
	Name      string          `json:"name,omitempty" db:"name"`
	Query     json.RawMessage `json:"query" db:"query"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (s *SavedSearch) EntityID() uuid.UUID     { return s.ID }
func (s *SavedSearch) CustomerRef() *uuid.UUID { return s.UserID }

type SearchHistory struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       *uuid.UUID `json:"user_id" db:"user_id"`
	Query        string     `json:"query" db:"query"`
	ResultsCount int        `json:"results_count" db:"results_count"`
	SearchedAt   time.Time  `json:"searched_at" db:"searched_at"`
}

func (h *SearchHistory) EntityID() uuid.UUID     { return h.ID }
func (h *SearchHistory) CustomerRef() *uuid.UUID { return h.UserID }
