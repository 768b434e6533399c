package queue

const (
	TypeNotificationDeliver = "notification:deliver"
	TypeAppointmentReminder = "appointment:reminder"
)

type NotificationDeliverPayload struct {
	UserID       string `json:"user_id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	ActionURL    string `json:"action_url,omitempty"`
}

type AppointmentReminderPayload struct {
	AppointmentID string `json:"appointment_id"`
}
