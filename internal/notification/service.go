package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, resource_type, resource_id, action_url, is_read, read_at, created_at`

// Service stores and serves per-user notifications. The inbox is inherently
// self-scoped: every authenticated user reads exactly their own rows, no
// resolver needed. Rows are written by the worker off the delivery queue.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// Deliver persists a notification for a user. Called by the queue worker.
func (s *Service) Deliver(ctx context.Context, n *models.Notification) error {
	if n.UserID == nil {
		return fmt.Errorf("%w: notification without recipient", models.ErrInvalidInput)
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, resource_type, resource_id, action_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.ResourceType, n.ResourceID, n.ActionURL,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List returns the actor's notifications, newest first.
func (s *Service) List(ctx context.Context, onlyUnread bool, limit, offset int) ([]models.Notification, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE user_id = $1`, notificationColumns)
	if onlyUnread {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, act.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.ResourceType, &n.ResourceID, &n.ActionURL, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// UnreadCount returns the actor's number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return 0, models.ErrForbidden
	}
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, act.ID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return models.ErrForbidden
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now() WHERE id = $1 AND user_id = $2 AND NOT is_read`,
		id, act.ID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either unknown, someone else's, or already read; check which.
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`, id, act.ID,
		).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("check notification: %w", err)
		}
		if !exists {
			return models.ErrNotFound
		}
	}
	return nil
}

// MarkAllRead marks every unread notification of the actor as read.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return 0, models.ErrForbidden
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now() WHERE user_id = $1 AND NOT is_read`, act.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
