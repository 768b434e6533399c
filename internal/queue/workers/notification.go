package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/notification"
	"github.com/marxist91/togoestate/internal/queue"
)

// NotificationWorker materializes queued notification fan-out into inbox rows.
type NotificationWorker struct {
	svc *notification.Service
}

func NewNotificationWorker(svc *notification.Service) *NotificationWorker {
	return &NotificationWorker{svc: svc}
}

func (w *NotificationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.NotificationDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("parse user ID: %w", err)
	}

	n := &models.Notification{
		UserID:       &userID,
		Type:         models.NotificationType(payload.Type),
		Title:        payload.Title,
		Message:      payload.Message,
		ResourceType: payload.ResourceType,
		ActionURL:    payload.ActionURL,
	}
	if payload.ResourceID != "" {
		if rid, err := uuid.Parse(payload.ResourceID); err == nil {
			n.ResourceID = &rid
		}
	}

	if err := w.svc.Deliver(ctx, n); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}

	slog.Info("notification delivered", "user_id", userID, "type", payload.Type)
	return nil
}
