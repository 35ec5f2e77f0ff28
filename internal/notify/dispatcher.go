package notify

import (
	"context"
	"sync"
	"time"

	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/models"
)

// IntegrationStore is the persistence the dispatcher needs
type IntegrationStore interface {
	ActiveForEvent(ctx context.Context, teamID int64, event string) ([]models.Integration, error)
	LogHistory(ctx context.Context, h *models.NotificationHistory) error
}

// MessageSender delivers one message to one webhook
type MessageSender interface {
	Send(ctx context.Context, kind, url string, m Message) error
}

// Reference points history rows at the entity that caused the event
type Reference struct {
	ID   int64
	Type string
}

// Dispatcher fans business events out to a team's enabled integrations
type Dispatcher struct {
	Store   IntegrationStore
	Sender  MessageSender
	Log     *logger.Logger
	Timeout time.Duration

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(store IntegrationStore, sender MessageSender, log *logger.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{Store: store, Sender: sender, Log: log, Timeout: timeout}
}

// Dispatch delivers msg in the background. The work outlives the request that triggered it,
// keeps its context values and is bounded by the dispatcher timeout. Failures are only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, teamID int64, event string, ref Reference, msg Message) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.Timeout)
		defer cancel()
		d.dispatch(bg, teamID, event, ref, msg)
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, teamID int64, event string, ref Reference, msg Message) {
	log := d.Log.WithContext(ctx)
	integrations, err := d.Store.ActiveForEvent(ctx, teamID, event)
	if err != nil {
		log.Error("Failed to load integrations for event", "team_id", teamID, "event", event, "error", err)
		return
	}
	for _, in := range integrations {
		if err := d.Deliver(ctx, in, event, ref, msg); err != nil {
			log.Warn("Webhook delivery failed", "integration_id", in.ID, "event", event, "error", err)
		}
	}
}

// Deliver sends msg to one integration and records the attempt in its history
func (d *Dispatcher) Deliver(ctx context.Context, in models.Integration, event string, ref Reference, msg Message) error {
	sendErr := d.Sender.Send(ctx, in.IntegrationType, in.WebhookURL, msg)

	h := &models.NotificationHistory{IntegrationID: in.ID, EventType: event, Status: models.DeliverySuccess}
	if ref.ID != 0 {
		id := ref.ID
		h.ReferenceID = &id
	}
	if ref.Type != "" {
		kind := ref.Type
		h.ReferenceType = &kind
	}
	if sendErr != nil {
		text := sendErr.Error()
		h.Status, h.ErrorMessage = models.DeliveryFailed, &text
	}
	if err := d.Store.LogHistory(ctx, h); err != nil {
		d.Log.WithContext(ctx).Error("Failed to record notification history", "integration_id", in.ID, "error", err)
	}
	return sendErr
}

// Wait blocks until every background delivery has finished
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
