package models

import "time"

// Integration kinds
const (
	IntegrationSlack = "slack"
	IntegrationTeams = "teams"
)

// Webhook event types
const (
	EventTaskCreated      = "task_created"
	EventTaskAssigned     = "task_assigned"
	EventTaskCompleted    = "task_completed"
	EventTaskDueSoon      = "task_due_soon"
	EventProjectCreated   = "project_created"
	EventProjectCompleted = "project_completed"
	EventTest             = "test"
)

// DefaultEventTypes are enabled on every newly configured integration
var DefaultEventTypes = []string{
	EventTaskCreated,
	EventTaskAssigned,
	EventTaskCompleted,
	EventTaskDueSoon,
	EventProjectCreated,
	EventProjectCompleted,
}

// History statuses
const (
	DeliverySuccess = "success"
	DeliveryFailed  = "failed"
)

// Integration is a team's outbound webhook to Slack or Microsoft Teams
type Integration struct {
	ID                   int64                 `json:"id"`
	TeamID               int64                 `json:"team_id"`
	IntegrationType      string                `json:"integration_type"`
	WebhookURL           string                `json:"webhook_url"`
	ChannelName          string                `json:"channel_name"`
	IsActive             bool                  `json:"is_active"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	NotificationSettings []NotificationSetting `json:"notificationSettings,omitempty"`
}

// NotificationSetting toggles one event type for an integration
type NotificationSetting struct {
	EventType string `json:"eventType" validate:"required,max=50"`
	IsEnabled bool   `json:"isEnabled"`
}

// NotificationHistory records one delivery attempt
type NotificationHistory struct {
	ID            int64     `json:"id"`
	IntegrationID int64     `json:"integration_id"`
	EventType     string    `json:"event_type"`
	ReferenceID   *int64    `json:"reference_id"`
	ReferenceType *string   `json:"reference_type"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message"`
	SentAt        time.Time `json:"sent_at"`
}

// DefaultSettings returns the default enabled settings
func DefaultSettings() []NotificationSetting {
	settings := make([]NotificationSetting, 0, len(DefaultEventTypes))
	for _, event := range DefaultEventTypes {
		settings = append(settings, NotificationSetting{EventType: event, IsEnabled: true})
	}
	return settings
}
