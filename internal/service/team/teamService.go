package teamService

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/realtime"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	"github.com/nikhil/teamtasks/internal/validator"
)

const (
	msgTeamNotFound = "Equipo no encontrado"
	msgNotMember    = "El usuario no es miembro de este equipo"
	msgBadTeamRole  = "Rol de equipo no válido"
)

var teamMessages = validator.Messages{
	"name.required":   "El nombre del equipo es obligatorio",
	"name.max":        "El nombre del equipo no puede exceder los 100 caracteres",
	"description.max": "La descripción no puede exceder los 500 caracteres",
}

// TeamService handles team-related operations
type TeamService struct {
	Teams     *repository.TeamRepository
	Users     *repository.UserRepository
	Publisher *realtime.Publisher
	Log       *logger.Logger
}

// CreateTeamRequest represents the request body for team creation
type CreateTeamRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateTeamRequest represents the request body for team updates
type UpdateTeamRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// NewTeamService initializes a new team service
func NewTeamService(c *container.Container) *TeamService {
	return &TeamService{
		Teams:     c.Teams,
		Users:     c.Users,
		Publisher: c.Publisher,
		Log:       logger.NewLogger("team-service"),
	}
}

// GetUserTeams lists every team for admins and the caller's teams otherwise
func (ts *TeamService) GetUserTeams(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	var teams []models.Team
	var err error
	if actor.IsAdmin() {
		teams, err = ts.Teams.List(r.Context())
	} else {
		teams, err = ts.Teams.ListByUser(r.Context(), actor.ID)
	}
	if err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to list teams", "error", err)
		response.ServerError(w, "Error al obtener equipos", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(teams), "teams": teams})
}

// GetTeam returns a team with its members
func (ts *TeamService) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, access, ok := ts.loadTeam(w, r, "Error al obtener equipo")
	if !ok {
		return
	}
	if !access.can(policy.ActionRead) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para ver este equipo")
		return
	}

	members, err := ts.Teams.Members(r.Context(), team.ID)
	if err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to list team members", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al obtener equipo", err)
		return
	}
	team.Members = members
	response.Success(w, http.StatusOK, "", response.Fields{"team": team, "members": members})
}

// GetTeamMembers lists the members of a team
func (ts *TeamService) GetTeamMembers(w http.ResponseWriter, r *http.Request) {
	team, access, ok := ts.loadTeam(w, r, "Error al obtener miembros del equipo")
	if !ok {
		return
	}
	if !access.can(policy.ActionRead) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para ver los miembros de este equipo")
		return
	}

	members, err := ts.Teams.Members(r.Context(), team.ID)
	if err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to list team members", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al obtener miembros del equipo", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(members), "members": members})
}

// CreateTeam handles the creation of a new team. The creator becomes its leader.
func (ts *TeamService) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req CreateTeamRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.Validate(req, teamMessages, "Datos de equipo inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	teamID, err := ts.Teams.Create(ctx, req.Name, req.Description, actor.ID)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to create team", "error", err)
		response.ServerError(w, "Error al crear equipo", err)
		return
	}
	response.Success(w, http.StatusCreated, "Equipo creado correctamente", response.Fields{"teamId": teamID})
}

// UpdateTeam renames a team. Only leaders and admins may do it.
func (ts *TeamService) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req UpdateTeamRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.Validate(req, teamMessages, "Datos de equipo inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	team, access, ok := ts.loadTeam(w, r, "Error al actualizar equipo")
	if !ok {
		return
	}
	if !access.can(policy.ActionUpdate) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para actualizar este equipo")
		return
	}

	if _, err := ts.Teams.Update(r.Context(), team.ID, req.Name, req.Description); err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to update team", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al actualizar equipo", err)
		return
	}
	response.Success(w, http.StatusOK, "Equipo actualizado correctamente", nil)
}

// DeleteTeam removes a team. Only its creator and admins may do it.
func (ts *TeamService) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	team, access, ok := ts.loadTeam(w, r, "Error al eliminar equipo")
	if !ok {
		return
	}
	if !access.can(policy.ActionDelete) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para eliminar este equipo")
		return
	}

	if _, err := ts.Teams.Delete(r.Context(), team.ID); err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to delete team", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al eliminar equipo", err)
		return
	}
	response.Success(w, http.StatusOK, "Equipo eliminado correctamente", nil)
}

// AddTeamMember adds a user to a team and tells them in-app
func (ts *TeamService) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req struct {
		UserID int64  `json:"userId"`
		Role   string `json:"role"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == 0 {
		response.Error(w, http.StatusBadRequest, "El ID del usuario es obligatorio")
		return
	}
	if req.Role == "" {
		req.Role = models.TeamRoleMember
	}
	if !models.IsValidTeamRole(req.Role) {
		response.Error(w, http.StatusBadRequest, msgBadTeamRole)
		return
	}

	team, access, ok := ts.loadTeam(w, r, "Error al añadir miembro al equipo")
	if !ok {
		return
	}
	if _, err := ts.Users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		ts.Log.WithContext(ctx).Error("Failed to load user", "user_id", req.UserID, "error", err)
		response.ServerError(w, "Error al añadir miembro al equipo", err)
		return
	}
	if !access.can(policy.ActionManageMembers) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para añadir miembros a este equipo")
		return
	}

	isMember, err := ts.Teams.IsMember(ctx, team.ID, req.UserID)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to check membership", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al añadir miembro al equipo", err)
		return
	}
	if isMember {
		response.Error(w, http.StatusBadRequest, "El usuario ya es miembro de este equipo")
		return
	}

	if err := ts.Teams.AddMember(ctx, team.ID, req.UserID, req.Role); err != nil {
		ts.Log.WithContext(ctx).Error("Failed to add team member", "team_id", team.ID, "user_id", req.UserID, "error", err)
		response.ServerError(w, "Error al añadir miembro al equipo", err)
		return
	}

	if req.UserID != actor.ID {
		teamID := team.ID
		ts.Publisher.Notify(ctx, models.Notification{
			UserID:      req.UserID,
			Title:       "Nuevo equipo",
			Message:     fmt.Sprintf("%s te ha añadido al equipo \"%s\"", actor.Username, team.Name),
			Type:        models.NotificationTeamAdded,
			ReferenceID: &teamID,
		})
	}
	response.Success(w, http.StatusOK, "Miembro añadido al equipo correctamente", nil)
}

// UpdateMemberRole promotes or demotes a member. The last leader cannot be demoted.
func (ts *TeamService) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Role string `json:"role"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsValidTeamRole(req.Role) {
		response.Error(w, http.StatusBadRequest, msgBadTeamRole)
		return
	}
	userID, ok := request.PathID(r, "userId")
	if !ok {
		response.Error(w, http.StatusBadRequest, msgNotMember)
		return
	}

	team, access, ok := ts.loadTeam(w, r, "Error al actualizar rol del miembro")
	if !ok {
		return
	}
	if !access.can(policy.ActionManageMembers) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para cambiar roles en este equipo")
		return
	}

	err := ts.Teams.UpdateMemberRole(ctx, team.ID, userID, req.Role)
	switch {
	case errors.Is(err, repository.ErrNotMember):
		response.Error(w, http.StatusBadRequest, msgNotMember)
	case errors.Is(err, repository.ErrLastLeader):
		response.Error(w, http.StatusBadRequest, "No se puede degradar al último líder del equipo")
	case err != nil:
		ts.Log.WithContext(ctx).Error("Failed to update member role", "team_id", team.ID, "user_id", userID, "error", err)
		response.ServerError(w, "Error al actualizar rol del miembro", err)
	default:
		actor, _ := middleware.ActorFrom(ctx)
		ts.Log.WithContext(ctx).Audit("Team role changed", "team_id", team.ID, "user_id", userID, "role", req.Role, "by", actor.ID)
		response.Success(w, http.StatusOK, "Rol del miembro actualizado correctamente", nil)
	}
}

// RemoveTeamMember removes a member. Leaders may remove anyone, members only themselves.
func (ts *TeamService) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := request.PathID(r, "userId")
	if !ok {
		response.Error(w, http.StatusBadRequest, msgNotMember)
		return
	}
	team, access, ok := ts.loadTeam(w, r, "Error al eliminar miembro del equipo")
	if !ok {
		return
	}

	isMember, err := ts.Teams.IsMember(ctx, team.ID, userID)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to check membership", "team_id", team.ID, "error", err)
		response.ServerError(w, "Error al eliminar miembro del equipo", err)
		return
	}
	if !isMember {
		response.Error(w, http.StatusBadRequest, msgNotMember)
		return
	}
	access.res.OwnerID = userID
	if !access.can(policy.ActionRemoveMember) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para eliminar miembros de este equipo")
		return
	}

	err = ts.Teams.RemoveMember(ctx, team.ID, userID)
	switch {
	case errors.Is(err, repository.ErrNotMember):
		response.Error(w, http.StatusBadRequest, msgNotMember)
	case errors.Is(err, repository.ErrLastLeader):
		response.Error(w, http.StatusBadRequest, "No se puede eliminar al último líder del equipo")
	case err != nil:
		ts.Log.WithContext(ctx).Error("Failed to remove team member", "team_id", team.ID, "user_id", userID, "error", err)
		response.ServerError(w, "Error al eliminar miembro del equipo", err)
	default:
		ts.Log.WithContext(ctx).Audit("Team member removed", "team_id", team.ID, "user_id", userID, "by", access.actor.ID)
		response.Success(w, http.StatusOK, "Miembro eliminado del equipo correctamente", nil)
	}
}

// teamAccess is the caller's standing in one team
type teamAccess struct {
	actor policy.Actor
	res   policy.Resource
}

func (a teamAccess) can(action policy.Action) bool {
	return policy.CanPerform(a.actor, action, a.res)
}

// loadTeam resolves the {id} team and the caller's membership in it
func (ts *TeamService) loadTeam(w http.ResponseWriter, r *http.Request, failure string) (*models.Team, teamAccess, bool) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	teamID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgTeamNotFound)
		return nil, teamAccess{}, false
	}
	team, err := ts.Teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgTeamNotFound)
			return nil, teamAccess{}, false
		}
		ts.Log.WithContext(ctx).Error("Failed to load team", "team_id", teamID, "error", err)
		response.ServerError(w, failure, err)
		return nil, teamAccess{}, false
	}

	role, err := ts.Teams.MemberRole(ctx, teamID, actor.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		ts.Log.WithContext(ctx).Error("Failed to load membership", "team_id", teamID, "error", err)
		response.ServerError(w, failure, err)
		return nil, teamAccess{}, false
	}

	access := teamAccess{
		actor: actor,
		res: policy.Resource{
			Kind:      policy.KindTeam,
			CreatorID: team.CreatedBy,
			IsMember:  err == nil,
			IsLeader:  role == models.TeamRoleLeader,
		},
	}
	return team, access, true
}
