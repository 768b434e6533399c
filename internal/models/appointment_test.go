package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func futureAppointment(status AppointmentStatus, now time.Time) *Appointment {
	return &Appointment{ID: uuid.New(), Status: status, ScheduledAt: now.Add(48 * time.Hour)}
}

func pastAppointment(status AppointmentStatus, now time.Time) *Appointment {
	return &Appointment{ID: uuid.New(), Status: status, ScheduledAt: now.Add(-48 * time.Hour)}
}

func TestAppointmentTransitionsFuture(t *testing.T) {
	now := time.Now()

	cases := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{AppointmentPending, AppointmentConfirmed, true},
		{AppointmentPending, AppointmentCancelled, true},
		{AppointmentPending, AppointmentCompleted, true},
		{AppointmentConfirmed, AppointmentCompleted, true},
		{AppointmentConfirmed, AppointmentCancelled, true},
		{AppointmentConfirmed, AppointmentPending, false},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentCompleted, AppointmentPending, false},
		{AppointmentCancelled, AppointmentConfirmed, false},
	}
	for _, tc := range cases {
		a := futureAppointment(tc.from, now)
		err := a.CanTransition(tc.to, now)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: want ErrInvalidTransition, got %v", tc.from, tc.to, err)
			}
		}
	}
}

func TestAppointmentPastOnlyCompletes(t *testing.T) {
	now := time.Now()

	// A pending appointment whose time has passed may still be marked
	// completed, but can no longer be confirmed or cancelled.
	a := pastAppointment(AppointmentPending, now)
	if err := a.CanTransition(AppointmentCompleted, now); err != nil {
		t.Fatalf("past pending -> completed: %v", err)
	}
	if err := a.CanTransition(AppointmentConfirmed, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("past pending -> confirmed should fail, got %v", err)
	}
	if err := a.CanTransition(AppointmentCancelled, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("past pending -> cancelled should fail, got %v", err)
	}

	c := pastAppointment(AppointmentConfirmed, now)
	if err := c.CanTransition(AppointmentCompleted, now); err != nil {
		t.Fatalf("past confirmed -> completed: %v", err)
	}
}

func TestPolicyRegistryCoversAllKinds(t *testing.T) {
	reg, err := PolicyRegistry()
	if err != nil {
		t.Fatalf("PolicyRegistry: %v", err)
	}
	if err := reg.Validate(RegisteredKinds()...); err != nil {
		t.Fatalf("registry incomplete: %v", err)
	}
}
