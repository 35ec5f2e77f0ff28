package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/models"
)

func sample() Message {
	return Message{
		Title:  "Nueva tarea",
		Text:   "Se creó la tarea *Deploy*",
		Fields: []Field{{Title: "Prioridad", Value: "alta", Short: true}},
	}
}

func TestFormatSlackMessage(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := FormatSlackMessage(sample(), now)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var body struct {
		Attachments []map[string]interface{} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Attachments, 1)
	a := body.Attachments[0]
	assert.Equal(t, "#36a64f", a["color"])
	assert.Equal(t, "Nueva tarea", a["title"])
	assert.Equal(t, "Gestión de Tareas para Equipos", a["footer"])
	assert.Equal(t, slackIcon, a["footer_icon"])
	assert.Equal(t, float64(1700000000), a["ts"])
	assert.Equal(t, []interface{}{map[string]interface{}{"title": "Prioridad", "value": "alta", "short": true}}, a["fields"])
}

func TestFormatTeamsMessage(t *testing.T) {
	m := sample()
	m.Color = "#ff0000"
	raw, err := json.Marshal(FormatTeamsMessage(m))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "MessageCard", body["@type"])
	assert.Equal(t, "http://schema.org/extensions", body["@context"])
	assert.Equal(t, "ff0000", body["themeColor"])
	assert.Equal(t, "Nueva tarea", body["summary"])

	sections := body["sections"].([]interface{})
	require.Len(t, sections, 1)
	section := sections[0].(map[string]interface{})
	assert.Equal(t, "Gestión de Tareas para Equipos", section["activitySubtitle"])
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "Prioridad", "value": "alta"}}, section["facts"])
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateSlackURL("https://hooks.slack.com/services/T/B/X"))
	assert.ErrorIs(t, ValidateSlackURL("https://example.com/hook"), ErrInvalidSlackURL)
	assert.ErrorIs(t, ValidateSlackURL(""), ErrInvalidSlackURL)

	assert.NoError(t, ValidateTeamsURL("https://outlook.office.com/webhook/x"))
	assert.ErrorIs(t, ValidateTeamsURL("http://outlook.office.com/webhook/x"), ErrInvalidTeamsURL)

	assert.ErrorIs(t, ValidateURL("discord", "https://x"), ErrUnknownKind)
}

func TestSender(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Contains(t, string(body), "MessageCard")
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	sender := NewSenderWithClient(server.Client())
	ctx := context.Background()

	t.Run("2xx succeeds", func(t *testing.T) {
		status.Store(http.StatusOK)
		assert.NoError(t, sender.Send(ctx, models.IntegrationTeams, server.URL, sample()))
	})

	t.Run("4xx fails", func(t *testing.T) {
		status.Store(http.StatusBadRequest)
		err := sender.Send(ctx, models.IntegrationTeams, server.URL, sample())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("5xx fails", func(t *testing.T) {
		status.Store(http.StatusBadGateway)
		assert.Error(t, sender.Send(ctx, models.IntegrationTeams, server.URL, sample()))
	})

	t.Run("invalid slack url never leaves the process", func(t *testing.T) {
		before := hits.Load()
		err := sender.Send(ctx, models.IntegrationSlack, server.URL, sample())
		assert.ErrorIs(t, err, ErrInvalidSlackURL)
		assert.Equal(t, before, hits.Load())
	})
}

type memoryStore struct {
	mu           sync.Mutex
	integrations []models.Integration
	history      []models.NotificationHistory
	loadErr      error
}

func (s *memoryStore) ActiveForEvent(_ context.Context, teamID int64, _ string) ([]models.Integration, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	var out []models.Integration
	for _, in := range s.integrations {
		if in.TeamID == teamID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *memoryStore) LogHistory(_ context.Context, h *models.NotificationHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *h)
	return nil
}

type fakeSender struct {
	fail map[string]error
}

func (f fakeSender) Send(_ context.Context, _, url string, _ Message) error {
	return f.fail[url]
}

func TestDispatcher(t *testing.T) {
	store := &memoryStore{integrations: []models.Integration{
		{ID: 1, TeamID: 4, IntegrationType: models.IntegrationSlack, WebhookURL: "ok"},
		{ID: 2, TeamID: 4, IntegrationType: models.IntegrationTeams, WebhookURL: "down"},
		{ID: 3, TeamID: 5, IntegrationType: models.IntegrationSlack, WebhookURL: "ok"},
	}}
	sender := fakeSender{fail: map[string]error{"down": errors.New("503")}}
	d := NewDispatcher(store, sender, logger.NewNop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, 4, models.EventTaskCreated, Reference{ID: 99, Type: "task"}, sample())
	cancel()
	d.Wait()

	require.Len(t, store.history, 2)
	byIntegration := map[int64]models.NotificationHistory{}
	for _, h := range store.history {
		byIntegration[h.IntegrationID] = h
	}

	ok := byIntegration[1]
	assert.Equal(t, models.DeliverySuccess, ok.Status)
	assert.Equal(t, models.EventTaskCreated, ok.EventType)
	require.NotNil(t, ok.ReferenceID)
	assert.Equal(t, int64(99), *ok.ReferenceID)
	assert.Nil(t, ok.ErrorMessage)

	failed := byIntegration[2]
	assert.Equal(t, models.DeliveryFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "503", *failed.ErrorMessage)
}

func TestDispatcherSwallowsLoadErrors(t *testing.T) {
	store := &memoryStore{loadErr: errors.New("db down")}
	d := NewDispatcher(store, fakeSender{}, logger.NewNop(), time.Second)

	d.Dispatch(context.Background(), 1, models.EventProjectCreated, Reference{}, sample())
	d.Wait()
	assert.Empty(t, store.history)

	var nilDispatcher *Dispatcher
	assert.NotPanics(t, func() {
		nilDispatcher.Dispatch(context.Background(), 1, models.EventTest, Reference{}, sample())
		nilDispatcher.Wait()
	})
}
