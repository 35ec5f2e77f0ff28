// Package notify delivers team events to Slack and Microsoft Teams incoming webhooks.
package notify

import (
	"errors"
	"strings"
	"time"

	"github.com/nikhil/teamtasks/internal/models"
)

const (
	defaultColor = "#36a64f"
	appName      = "Gestión de Tareas para Equipos"
	slackIcon    = "https://platform.slack-edge.com/img/default_application_icon.png"
	teamsImage   = "https://adaptivecards.io/content/adaptive-card-50.png"
	slackPrefix  = "https://hooks.slack.com/"
)

var (
	ErrInvalidSlackURL = errors.New("URL de webhook de Slack inválida")
	ErrInvalidTeamsURL = errors.New("URL de webhook de Microsoft Teams inválida")
	ErrUnknownKind     = errors.New("tipo de integración no soportado")
)

// Field is a labelled value shown under the message text
type Field struct {
	Title string
	Value string
	Short bool
}

// Message is the platform-neutral content of a notification
type Message struct {
	Title  string
	Text   string
	Fields []Field
	Color  string
}

func (m Message) color() string {
	if m.Color == "" {
		return defaultColor
	}
	return m.Color
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color      string       `json:"color"`
	Title      string       `json:"title"`
	Text       string       `json:"text"`
	Fields     []slackField `json:"fields"`
	Footer     string       `json:"footer"`
	FooterIcon string       `json:"footer_icon"`
	Ts         int64        `json:"ts"`
}

// SlackPayload is the body of a Slack incoming webhook call
type SlackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle    string      `json:"activityTitle"`
	ActivitySubtitle string      `json:"activitySubtitle"`
	ActivityImage    string      `json:"activityImage"`
	Text             string      `json:"text"`
	Facts            []teamsFact `json:"facts"`
}

// TeamsPayload is a legacy MessageCard accepted by Teams incoming webhooks
type TeamsPayload struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor"`
	Summary    string         `json:"summary"`
	Sections   []teamsSection `json:"sections"`
}

// FormatSlackMessage renders m as a single Slack attachment stamped with now
func FormatSlackMessage(m Message, now time.Time) SlackPayload {
	fields := make([]slackField, 0, len(m.Fields))
	for _, f := range m.Fields {
		fields = append(fields, slackField{Title: f.Title, Value: f.Value, Short: f.Short})
	}
	return SlackPayload{Attachments: []slackAttachment{{
		Color:      m.color(),
		Title:      m.Title,
		Text:       m.Text,
		Fields:     fields,
		Footer:     appName,
		FooterIcon: slackIcon,
		Ts:         now.Unix(),
	}}}
}

// FormatTeamsMessage renders m as a MessageCard
func FormatTeamsMessage(m Message) TeamsPayload {
	facts := make([]teamsFact, 0, len(m.Fields))
	for _, f := range m.Fields {
		facts = append(facts, teamsFact{Name: f.Title, Value: f.Value})
	}
	return TeamsPayload{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: strings.ReplaceAll(m.color(), "#", ""),
		Summary:    m.Title,
		Sections: []teamsSection{{
			ActivityTitle:    m.Title,
			ActivitySubtitle: appName,
			ActivityImage:    teamsImage,
			Text:             m.Text,
			Facts:            facts,
		}},
	}
}

// ValidateSlackURL accepts only Slack incoming webhook URLs
func ValidateSlackURL(url string) error {
	if !strings.HasPrefix(url, slackPrefix) {
		return ErrInvalidSlackURL
	}
	return nil
}

// ValidateTeamsURL accepts any https URL
func ValidateTeamsURL(url string) error {
	if !strings.HasPrefix(url, "https://") {
		return ErrInvalidTeamsURL
	}
	return nil
}

// ValidateURL dispatches to the validator of kind
func ValidateURL(kind, url string) error {
	switch kind {
	case models.IntegrationSlack:
		return ValidateSlackURL(url)
	case models.IntegrationTeams:
		return ValidateTeamsURL(url)
	}
	return ErrUnknownKind
}

// KindLabel is the human name of an integration kind
func KindLabel(kind string) string {
	if kind == models.IntegrationTeams {
		return "Microsoft Teams"
	}
	return "Slack"
}
