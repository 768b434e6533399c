package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/marxist91/togoestate/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueNotificationDeliver(payload NotificationDeliverPayload) error {
	return c.enqueue(TypeNotificationDeliver, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
}

// EnqueueAppointmentReminder schedules a reminder to fire at the given time,
// normally one hour before the viewing.
func (c *Client) EnqueueAppointmentReminder(payload AppointmentReminderPayload, at time.Time) error {
	return c.enqueue(TypeAppointmentReminder, payload,
		asynq.MaxRetry(3), asynq.Timeout(30*time.Second), asynq.ProcessAt(at))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
