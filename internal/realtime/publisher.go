package realtime

import (
	"context"

	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/models"
)

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) (int64, error)
}

// Publisher stores in-app notifications and pushes them to the recipient's live connections
type Publisher struct {
	Store NotificationStore
	Hub   *Hub
	Log   *logger.Logger
}

// NewPublisher creates a Publisher
func NewPublisher(store NotificationStore, hub *Hub, log *logger.Logger) *Publisher {
	return &Publisher{Store: store, Hub: hub, Log: log}
}

// Notify saves n and pushes it. Failures are logged and never reach the caller's response.
func (p *Publisher) Notify(ctx context.Context, n models.Notification) {
	if _, err := p.Store.Create(ctx, &n); err != nil {
		p.Log.WithContext(ctx).Error("Failed to create notification", "user_id", n.UserID, "type", n.Type, "error", err)
		return
	}
	p.Hub.SendToUser(n.UserID, FrameNotification, n)
}

// PushMessage forwards a direct message to its recipient
func (p *Publisher) PushMessage(m *models.Message) bool {
	return p.Hub.SendToUser(m.RecipientID, FrameMessage, m)
}
