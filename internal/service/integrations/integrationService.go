package integrationService

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/notify"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	"github.com/nikhil/teamtasks/internal/validator"
)

const (
	msgTeamNotFound        = "Equipo no encontrado"
	msgIntegrationNotFound = "Integración no encontrada"
	historyDefaultLimit    = 50
	testTimeLayout         = "02/01/2006 15:04:05"
)

var settingMessages = validator.Messages{
	"eventType.required": "El tipo de evento es obligatorio",
	"eventType.max":      "El tipo de evento no puede exceder los 50 caracteres",
}

// IntegrationService configures and exercises team webhooks to Slack and Microsoft Teams
type IntegrationService struct {
	Integrations *repository.IntegrationRepository
	Teams        *repository.TeamRepository
	Sender       notify.MessageSender
	Dispatcher   *notify.Dispatcher
	Log          *logger.Logger
}

type configureRequest struct {
	WebhookURL           string                       `json:"webhookUrl"`
	ChannelName          string                       `json:"channelName"`
	NotificationSettings []models.NotificationSetting `json:"notificationSettings" validate:"dive"`
}

func NewIntegrationService(c *container.Container) *IntegrationService {
	return &IntegrationService{
		Integrations: c.Integrations,
		Teams:        c.Teams,
		Sender:       c.Sender,
		Dispatcher:   c.Dispatcher,
		Log:          logger.NewLogger("integration-service"),
	}
}

// GetTeamIntegrations lists a team's integrations with their notification settings
func (is *IntegrationService) GetTeamIntegrations(w http.ResponseWriter, r *http.Request) {
	team, ok := is.loadTeam(w, r, policy.ActionRead, "No tienes permiso para ver las integraciones de este equipo", "Error al obtener integraciones")
	if !ok {
		return
	}
	integrations, err := is.Integrations.ListByTeam(r.Context(), team.ID)
	if err != nil {
		is.Log.WithContext(r.Context()).Error("Failed to list integrations", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al obtener integraciones", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(integrations), "integrations": integrations})
}

func (is *IntegrationService) ConfigureSlack(w http.ResponseWriter, r *http.Request) {
	is.configure(w, r, models.IntegrationSlack)
}

func (is *IntegrationService) ConfigureTeams(w http.ResponseWriter, r *http.Request) {
	is.configure(w, r, models.IntegrationTeams)
}

// configure upserts the team's integration of kind, then announces it on the new webhook.
// A failed announcement does not fail the request.
func (is *IntegrationService) configure(w http.ResponseWriter, r *http.Request, kind string) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)
	label := notify.KindLabel(kind)
	failure := "Error al configurar integración con " + label

	var req configureRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.WebhookURL = strings.TrimSpace(req.WebhookURL)
	if req.WebhookURL == "" {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("La URL del webhook de %s es obligatoria", label))
		return
	}
	if err := validator.Validate(req, settingMessages, "Configuración de notificaciones inválida"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	team, ok := is.loadTeam(w, r, policy.ActionIntegrations, "No tienes permiso para configurar integraciones para este equipo", failure)
	if !ok {
		return
	}

	in := &models.Integration{
		TeamID:          team.ID,
		IntegrationType: kind,
		WebhookURL:      req.WebhookURL,
		ChannelName:     strings.TrimSpace(req.ChannelName),
	}
	if err := is.Integrations.Upsert(ctx, in, req.NotificationSettings); err != nil {
		is.Log.WithContext(ctx).Error("Failed to save integration", "team_id", team.ID, "kind", kind, "error", err)
		response.ServerError(w, failure, err)
		return
	}
	is.Log.WithContext(ctx).Audit("Integration configured", "team_id", team.ID, "kind", kind, "integration_id", in.ID, "by", actor.ID)

	announcement := notify.Message{
		Title: fmt.Sprintf("✅ Integración con %s configurada correctamente", label),
		Text:  fmt.Sprintf("La integración con %s ha sido configurada correctamente para el equipo %s", label, team.Name),
		Fields: []notify.Field{
			{Title: "Equipo", Value: team.Name},
			{Title: "Configurado por", Value: actor.Username},
		},
	}
	if err := is.Sender.Send(ctx, kind, in.WebhookURL, announcement); err != nil {
		is.Log.WithContext(ctx).Warn("Could not send integration test message", "integration_id", in.ID, "error", err)
	}

	response.Success(w, http.StatusOK, fmt.Sprintf("Integración con %s configurada correctamente", label), response.Fields{
		"data": response.Fields{
			"teamId": team.ID,
			"integration": response.Fields{
				"id":          in.ID,
				"type":        kind,
				"webhookUrl":  in.WebhookURL,
				"channelName": in.ChannelName,
			},
		},
	})
}

// TestIntegration sends a test message and records the attempt in the history
func (is *IntegrationService) TestIntegration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	in, team, ok := is.loadIntegration(w, r, "No tienes permiso para probar esta integración", "Error al probar integración")
	if !ok {
		return
	}

	label := notify.KindLabel(in.IntegrationType)
	msg := notify.Message{
		Title: "🧪 Prueba de integración con " + label,
		Text:  fmt.Sprintf("Esta es una prueba de la integración con %s para el equipo %s", label, team.Name),
		Fields: []notify.Field{
			{Title: "Equipo", Value: team.Name},
			{Title: "Probado por", Value: actor.Username},
			{Title: "Fecha y hora", Value: time.Now().Format(testTimeLayout)},
		},
	}
	if err := is.Dispatcher.Deliver(ctx, *in, models.EventTest, notify.Reference{}, msg); err != nil {
		is.Log.WithContext(ctx).Error("Integration test failed", "integration_id", in.ID, "error", err)
		response.ServerError(w, "Error al probar integración", err)
		return
	}
	response.Success(w, http.StatusOK, fmt.Sprintf("Prueba de integración con %s enviada correctamente", label), nil)
}

// GetIntegrationHistory returns the latest delivery attempts, newest first
func (is *IntegrationService) GetIntegrationHistory(w http.ResponseWriter, r *http.Request) {
	in, _, ok := is.loadIntegration(w, r, "No tienes permiso para ver el historial de esta integración", "Error al obtener historial de notificaciones")
	if !ok {
		return
	}
	history, err := is.Integrations.History(r.Context(), in.ID, request.QueryInt(r, "limit", historyDefaultLimit))
	if err != nil {
		is.Log.WithContext(r.Context()).Error("Failed to load history", "integration_id", in.ID, "error", err)
		response.ServerError(w, "Error al obtener historial de notificaciones", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(history), "history": history})
}

func (is *IntegrationService) UpdateIntegrationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		IsActive interface{} `json:"isActive"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	active, isBool := req.IsActive.(bool)
	if !isBool {
		response.Error(w, http.StatusBadRequest, "El estado de activación debe ser un valor booleano")
		return
	}

	in, _, ok := is.loadIntegration(w, r, "No tienes permiso para modificar esta integración", "Error al actualizar estado de integración")
	if !ok {
		return
	}
	if _, err := is.Integrations.UpdateStatus(ctx, in.ID, active); err != nil {
		is.Log.WithContext(ctx).Error("Failed to update integration status", "integration_id", in.ID, "error", err)
		response.ServerError(w, "Error al actualizar estado de integración", err)
		return
	}

	state := "desactivada"
	if active {
		state = "activada"
	}
	response.Success(w, http.StatusOK, fmt.Sprintf("Integración %s correctamente", state), response.Fields{
		"data": response.Fields{"id": in.ID, "isActive": active},
	})
}

func (is *IntegrationService) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	in, _, ok := is.loadIntegration(w, r, "No tienes permiso para eliminar esta integración", "Error al eliminar integración")
	if !ok {
		return
	}
	if _, err := is.Integrations.Delete(ctx, in.ID); err != nil {
		is.Log.WithContext(ctx).Error("Failed to delete integration", "integration_id", in.ID, "error", err)
		response.ServerError(w, "Error al eliminar integración", err)
		return
	}
	is.Log.WithContext(ctx).Audit("Integration deleted", "integration_id", in.ID, "team_id", in.TeamID, "by", actor.ID)
	response.Success(w, http.StatusOK, "Integración eliminada correctamente", nil)
}

// loadTeam resolves {teamId} and checks action for the caller
func (is *IntegrationService) loadTeam(w http.ResponseWriter, r *http.Request, action policy.Action, forbidden, failure string) (*models.Team, bool) {
	teamID, ok := request.PathID(r, "teamId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgTeamNotFound)
		return nil, false
	}
	return is.authorizeTeam(w, r, teamID, action, forbidden, failure)
}

// loadIntegration resolves {integrationId} and requires the caller to lead its team
func (is *IntegrationService) loadIntegration(w http.ResponseWriter, r *http.Request, forbidden, failure string) (*models.Integration, *models.Team, bool) {
	ctx := r.Context()
	id, ok := request.PathID(r, "integrationId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgIntegrationNotFound)
		return nil, nil, false
	}
	in, err := is.Integrations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgIntegrationNotFound)
			return nil, nil, false
		}
		is.Log.WithContext(ctx).Error("Failed to load integration", "integration_id", id, "error", err)
		response.ServerError(w, failure, err)
		return nil, nil, false
	}
	team, ok := is.authorizeTeam(w, r, in.TeamID, policy.ActionIntegrations, forbidden, failure)
	if !ok {
		return nil, nil, false
	}
	return in, team, true
}

func (is *IntegrationService) authorizeTeam(w http.ResponseWriter, r *http.Request, teamID int64, action policy.Action, forbidden, failure string) (*models.Team, bool) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	team, err := is.Teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgTeamNotFound)
			return nil, false
		}
		is.Log.WithContext(ctx).Error("Failed to load team", "team_id", teamID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}

	res, err := is.membership(ctx, teamID, actor)
	if err != nil {
		is.Log.WithContext(ctx).Error("Failed to load membership", "team_id", teamID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	if !policy.CanPerform(actor, action, res) {
		response.Error(w, http.StatusForbidden, forbidden)
		return nil, false
	}
	return team, true
}

func (is *IntegrationService) membership(ctx context.Context, teamID int64, actor policy.Actor) (policy.Resource, error) {
	res := policy.Resource{Kind: policy.KindTeam}
	if actor.IsAdmin() {
		return res, nil
	}
	role, err := is.Teams.MemberRole(ctx, teamID, actor.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.IsMember, res.IsLeader = true, role == models.TeamRoleLeader
	return res, nil
}
