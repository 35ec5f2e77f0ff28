package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nikhil/teamtasks/internal/models"
)

// Sender posts formatted messages to webhook URLs
type Sender struct {
	client *resty.Client
	now    func() time.Time
}

// NewSender creates a Sender whose requests give up after timeout
func NewSender(timeout time.Duration) *Sender {
	return &Sender{client: resty.New().SetTimeout(timeout), now: time.Now}
}

// NewSenderWithClient wraps an existing http.Client, for custom transports and tests
func NewSenderWithClient(hc *http.Client) *Sender {
	return &Sender{client: resty.NewWithClient(hc), now: time.Now}
}

// Send validates url for kind, formats m and posts it. Any non-2xx status is an error.
func (s *Sender) Send(ctx context.Context, kind, url string, m Message) error {
	if err := ValidateURL(kind, url); err != nil {
		return err
	}

	var payload interface{}
	if kind == models.IntegrationSlack {
		payload = FormatSlackMessage(m, s.now())
	} else {
		payload = FormatTeamsMessage(m)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("error al enviar notificación a %s: %w", KindLabel(kind), err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("error al enviar notificación a %s: %d %s", KindLabel(kind), resp.StatusCode(), resp.String())
	}
	return nil
}
