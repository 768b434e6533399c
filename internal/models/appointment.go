package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition marks an appointment status change outside the
// permitted state graph. It is a validation error, not a server fault.
var ErrInvalidTransition = errors.New("invalid appointment transition")

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Status graph: pending -> {confirmed, cancelled, completed},
// confirmed -> {completed, cancelled}; completed and cancelled are terminal.
// Completing straight from pending covers viewings that happened without the
// agent ever confirming in the system.
var appointmentTransitions = map[AppointmentStatus]map[AppointmentStatus]struct{}{
	AppointmentPending: {
		AppointmentConfirmed: {},
		AppointmentCancelled: {},
		AppointmentCompleted: {},
	},
	AppointmentConfirmed: {
		AppointmentCompleted: {},
		AppointmentCancelled: {},
	},
}

type Appointment struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	ListingID   uuid.UUID         `json:"listing_id" db:"listing_id"`
	AgencyID    *uuid.UUID        `json:"agency_id,omitempty" db:"agency_id"`
	AgentID     *uuid.UUID        `json:"agent_id,omitempty" db:"agent_id"`
	CustomerID  *uuid.UUID        `json:"customer_id,omitempty" db:"customer_id"`
	ScheduledAt time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Status      AppointmentStatus `json:"status" db:"status"`
	Notes       string            `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

func (a *Appointment) EntityID() uuid.UUID     { return a.ID }
func (a *Appointment) TenantRef() *uuid.UUID   { return a.AgencyID }
func (a *Appointment) OwnerRef() *uuid.UUID    { return a.AgentID }
func (a *Appointment) CustomerRef() *uuid.UUID { return a.CustomerID }

// IsPast reports whether the scheduled time has already passed.
func (a *Appointment) IsPast(now time.Time) bool {
	return a.ScheduledAt.Before(now)
}

// CanTransition validates a status change against the state graph and the
// schedule: confirm and cancel are only possible while the appointment lies
// in the future, while completion is recorded after the fact and is allowed
// on past appointments.
func (a *Appointment) CanTransition(to AppointmentStatus, now time.Time) error {
	allowed, ok := appointmentTransitions[a.Status]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, a.Status)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	if a.IsPast(now) && to != AppointmentCompleted {
		return fmt.Errorf("%w: %s is past its scheduled time", ErrInvalidTransition, a.ID)
	}
	return nil
}
