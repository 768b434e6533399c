package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/audit"
	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
	"github.com/marxist91/togoestate/internal/queue"
)

const appointmentColumns = `id, listing_id, agency_id, agent_id, customer_id, scheduled_at, status, notes, created_at, updated_at`

type Auditor interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

// Notifier enqueues notification fan-out and reminders. Satisfied by
// *queue.Client.
type Notifier interface {
	EnqueueNotificationDeliver(payload queue.NotificationDeliverPayload) error
	EnqueueAppointmentReminder(payload queue.AppointmentReminderPayload, at time.Time) error
}

type Service struct {
	db       *pgxpool.Pool
	engine   *policy.Engine
	audit    Auditor
	notifier Notifier
	now      func() time.Time
}

func NewService(db *pgxpool.Pool, engine *policy.Engine, auditor Auditor, notifier Notifier) *Service {
	return &Service{db: db, engine: engine, audit: auditor, notifier: notifier, now: time.Now}
}

type CreateInput struct {
	ListingID   uuid.UUID `json:"listing_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes"`
}

// Create books a viewing on a published listing. The agency and the handling
// agent come from the listing, never from the payload; the customer field is
// pinned to the acting customer by the lockdown.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Appointment, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	decision, err := s.engine.Authorize(act, policy.KindAppointment, nil, policy.OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	if in.ScheduledAt.Before(s.now()) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", models.ErrInvalidInput)
	}

	var listing struct {
		AgencyID  *uuid.UUID
		OwnerID   *uuid.UUID
		Title     string
		Published bool
	}
	err = s.db.QueryRow(ctx,
		`SELECT agency_id, owner_id, title, published FROM listings WHERE id = $1`, in.ListingID,
	).Scan(&listing.AgencyID, &listing.OwnerID, &listing.Title, &listing.Published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: listing", models.ErrNotFound)
		}
		return nil, fmt.Errorf("query listing: %w", err)
	}
	if !listing.Published {
		return nil, fmt.Errorf("%w: listing is not available for viewings", models.ErrInvalidInput)
	}

	a := &models.Appointment{
		ID:          uuid.New(),
		ListingID:   in.ListingID,
		AgencyID:    listing.AgencyID,
		AgentID:     listing.OwnerID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Status:      models.AppointmentPending,
		Notes:       in.Notes,
	}
	payload := decision.Lockdown.Apply(map[string]any{})
	if v, ok := payload[policy.FieldCustomer].(uuid.UUID); ok {
		a.CustomerID = &v
	} else if act.Role == policy.RoleCustomer {
		a.CustomerID = &act.ID
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO appointments (id, listing_id, agency_id, agent_id, customer_id, scheduled_at, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ListingID, a.AgencyID, a.AgentID, a.CustomerID, a.ScheduledAt, a.Status, a.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.logAudit(ctx, "appointment.create", &a.ID, map[string]interface{}{"listing_id": a.ListingID.String()})

	if s.notifier != nil {
		if a.AgentID != nil {
			_ = s.notifier.EnqueueNotificationDeliver(queue.NotificationDeliverPayload{
				UserID:       a.AgentID.String(),
				Type:         string(models.NotifyAppointmentRequest),
				Title:        "New viewing request",
				Message:      fmt.Sprintf("A viewing of %q was requested for %s.", listing.Title, a.ScheduledAt.Format(time.RFC1123)),
				ResourceType: "appointment",
				ResourceID:   a.ID.String(),
			})
		}
		if a.CustomerID != nil {
			remindAt := a.ScheduledAt.Add(-time.Hour)
			if remindAt.After(s.now()) {
				_ = s.notifier.EnqueueAppointmentReminder(
					queue.AppointmentReminderPayload{AppointmentID: a.ID.String()}, remindAt)
			}
		}
	}

	return a, nil
}

// Get returns an appointment the actor's scope admits.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindAppointment)
	if err != nil {
		return nil, err
	}

	a, err := s.appointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(a) {
		return nil, models.ErrNotFound
	}
	return a, nil
}

// List returns appointments in the actor's scope: customers see their own
// bookings, agents the viewings assigned to them, agency admins the whole
// agency's calendar.
func (s *Service) List(ctx context.Context, status models.AppointmentStatus, limit, offset int) ([]models.Appointment, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindAppointment)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	where, args := scope.SQL(1)
	argIdx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s`, appointmentColumns, where)
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Transition moves an appointment through its lifecycle. The mutation rules
// decide who may act on the record at all; on top of that, customers may only
// cancel their own booking while confirm and complete belong to the agency
// side. The state graph and the schedule gate the target status.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to models.AppointmentStatus) (*models.Appointment, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	a, err := s.appointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(act, policy.KindAppointment, a, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}
	if act.Role == policy.RoleCustomer && to != models.AppointmentCancelled {
		return nil, models.ErrForbidden
	}

	if err := a.CanTransition(to, s.now()); err != nil {
		return nil, err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, to, a.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost a race with a concurrent transition.
		return nil, fmt.Errorf("%w: appointment status changed concurrently", models.ErrConflict)
	}

	s.logAudit(ctx, "appointment."+string(to), &id, map[string]interface{}{"from": string(a.Status)})
	s.notifyTransition(act, a, to)

	a.Status = to
	return a, nil
}

func (s *Service) notifyTransition(act policy.Actor, a *models.Appointment, to models.AppointmentStatus) {
	if s.notifier == nil {
		return
	}

	var notifType models.NotificationType
	switch to {
	case models.AppointmentConfirmed:
		notifType = models.NotifyAppointmentConfirmed
	case models.AppointmentCancelled:
		notifType = models.NotifyAppointmentCancelled
	case models.AppointmentCompleted:
		notifType = models.NotifyAppointmentCompleted
	default:
		return
	}

	// Tell the other side of the appointment.
	var recipient *uuid.UUID
	if act.Role == policy.RoleCustomer {
		recipient = a.AgentID
	} else {
		recipient = a.CustomerID
	}
	if recipient == nil {
		return
	}

	_ = s.notifier.EnqueueNotificationDeliver(queue.NotificationDeliverPayload{
		UserID:       recipient.String(),
		Type:         string(notifType),
		Title:        fmt.Sprintf("Viewing %s", to),
		Message:      fmt.Sprintf("The viewing scheduled for %s is now %s.", a.ScheduledAt.Format(time.RFC1123), to),
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
	})
}

func (s *Service) appointmentByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	row := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns), id)
	if err := scanAppointment(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query appointment: %w", err)
	}
	return &a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner, a *models.Appointment) error {
	return row.Scan(
		&a.ID, &a.ListingID, &a.AgencyID, &a.AgentID, &a.CustomerID,
		&a.ScheduledAt, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (s *Service) logAudit(ctx context.Context, action string, resourceID *uuid.UUID, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Log(ctx, audit.LogEntry{
		Action:       action,
		ResourceType: "appointment",
		ResourceID:   resourceID,
		Details:      details,
	})
}
