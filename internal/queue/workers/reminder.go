package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/notification"
	"github.com/marxist91/togoestate/internal/queue"
)

// ReminderWorker fires scheduled appointment reminders. A reminder enqueued
// at booking time may be stale by the time it runs, so the appointment is
// reloaded and cancelled or completed viewings are skipped silently.
type ReminderWorker struct {
	db  *pgxpool.Pool
	svc *notification.Service
}

func NewReminderWorker(db *pgxpool.Pool, svc *notification.Service) *ReminderWorker {
	return &ReminderWorker{db: db, svc: svc}
}

func (w *ReminderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AppointmentReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return fmt.Errorf("parse appointment ID: %w", err)
	}

	var (
		customerID  *uuid.UUID
		scheduledAt time.Time
		status      models.AppointmentStatus
		title       string
	)
	err = w.db.QueryRow(ctx, `
		SELECT a.customer_id, a.scheduled_at, a.status, l.title
		FROM appointments a
		JOIN listings l ON l.id = a.listing_id
		WHERE a.id = $1`, apptID,
	).Scan(&customerID, &scheduledAt, &status, &title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Info("reminder skipped, appointment gone", "appointment_id", apptID)
			return nil
		}
		return fmt.Errorf("query appointment: %w", err)
	}

	if status != models.AppointmentPending && status != models.AppointmentConfirmed {
		slog.Info("reminder skipped", "appointment_id", apptID, "status", status)
		return nil
	}
	if customerID == nil {
		return nil
	}

	n := &models.Notification{
		UserID:       customerID,
		Type:         models.NotifySystemAlert,
		Title:        "Upcoming viewing",
		Message:      fmt.Sprintf("Your viewing of %q is scheduled for %s.", title, scheduledAt.Format(time.RFC1123)),
		ResourceType: "appointment",
		ResourceID:   &apptID,
	}
	if err := w.svc.Deliver(ctx, n); err != nil {
		return fmt.Errorf("deliver reminder: %w", err)
	}

	slog.Info("appointment reminder sent", "appointment_id", apptID)
	return nil
}
