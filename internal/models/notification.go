package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyAppointmentRequest   NotificationType = "appointment_request"
	NotifyAppointmentConfirmed NotificationType = "appointment_confirmed"
	NotifyAppointmentCancelled NotificationType = "appointment_cancelled"
	NotifyAppointmentCompleted NotificationType = "appointment_completed"

	NotifyListingApproved NotificationType = "listing_approved"
	NotifyListingRejected NotificationType = "listing_rejected"
	NotifyListingFeatured NotificationType = "listing_featured"

	NotifyAgencyApproved NotificationType = "agency_approved"
	NotifyAgencyRejected NotificationType = "agency_rejected"
	NotifyAgentJoined    NotificationType = "agent_joined"

	NotifyUserRegistered NotificationType = "user_registered"
	NotifySystemAlert    NotificationType = "system_alert"
)

type Notification struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	UserID       *uuid.UUID       `json:"user_id" db:"user_id"`
	Type         NotificationType `json:"type" db:"type"`
	Title        string           `json:"title" db:"title"`
	Message      string           `json:"message" db:"message"`
	ResourceType string           `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   *uuid.UUID       `json:"resource_id,omitempty" db:"resource_id"`
	ActionURL    string           `json:"action_url,omitempty" db:"action_url"`
	IsRead       bool             `json:"is_read" db:"is_read"`
	ReadAt       *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

func (n *Notification) EntityID() uuid.UUID     { return n.ID }
func (n *Notification) CustomerRef() *uuid.UUID { return n.UserID }
