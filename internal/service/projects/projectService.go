package projectService

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

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
	msgProjectNotFound = "Proyecto no encontrado"
	msgTeamNotFound    = "Equipo no encontrado"
)

var projectMessages = validator.Messages{
	"name.required": "El nombre del proyecto es obligatorio",
	"name.max":      "El nombre del proyecto no puede exceder los 100 caracteres",
	"status.oneof":  "Estado no válido",
}

// ProjectService handles project-related operations
type ProjectService struct {
	Projects   *repository.ProjectRepository
	Teams      *repository.TeamRepository
	Dispatcher *notify.Dispatcher
	Log        *logger.Logger
}

type projectFields struct {
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Status      string  `json:"status" validate:"omitempty,oneof=pendiente en_progreso en_revision completada cancelada"`
	TeamID      *int64  `json:"team_id"`
}

// CreateProjectRequest represents the request body for project creation
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	projectFields
}

// UpdateProjectRequest represents the request body for project updates
type UpdateProjectRequest struct {
	Name string `json:"name" validate:"max=100"`
	projectFields
}

// NewProjectService initializes a new project service
func NewProjectService(c *container.Container) *ProjectService {
	return &ProjectService{
		Projects:   c.Projects,
		Teams:      c.Teams,
		Dispatcher: c.Dispatcher,
		Log:        logger.NewLogger("project-service"),
	}
}

// GetAllProjects lists every project for admins and the caller's own projects otherwise
func (ps *ProjectService) GetAllProjects(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	var projects []models.Project
	var err error
	if actor.IsAdmin() {
		projects, err = ps.Projects.List(r.Context())
	} else {
		projects, err = ps.Projects.ListByOwner(r.Context(), actor.ID)
	}
	if err != nil {
		ps.Log.WithContext(r.Context()).Error("Failed to list projects", "error", err)
		response.ServerError(w, "Error al obtener proyectos", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(projects), "projects": projects})
}

// GetMyProjects lists the projects the caller owns
func (ps *ProjectService) GetMyProjects(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	projects, err := ps.Projects.ListByOwner(r.Context(), actor.ID)
	if err != nil {
		ps.Log.WithContext(r.Context()).Error("Failed to list own projects", "user_id", actor.ID, "error", err)
		response.ServerError(w, "Error al obtener tus proyectos", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(projects), "projects": projects})
}

// GetProjectsByTeam lists a team's projects for its members
func (ps *ProjectService) GetProjectsByTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	teamID, ok := request.PathID(r, "teamId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgTeamNotFound)
		return
	}
	if _, err := ps.Teams.GetByID(ctx, teamID); err != nil {
		ps.teamError(w, r, err, "Error al obtener proyectos del equipo")
		return
	}
	isMember, err := ps.Teams.IsMember(ctx, teamID, actor.ID)
	if err != nil {
		ps.Log.WithContext(ctx).Error("Failed to check membership", "team_id", teamID, "error", err)
		response.ServerError(w, "Error al obtener proyectos del equipo", err)
		return
	}
	if !policy.CanPerform(actor, policy.ActionRead, policy.Resource{Kind: policy.KindTeam, IsMember: isMember}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para ver los proyectos de este equipo")
		return
	}

	projects, err := ps.Projects.ListByTeam(ctx, teamID)
	if err != nil {
		ps.Log.WithContext(ctx).Error("Failed to list team projects", "team_id", teamID, "error", err)
		response.ServerError(w, "Error al obtener proyectos del equipo", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(projects), "projects": projects})
}

// GetProject returns a project to an admin, its owner or a member of its team
func (ps *ProjectService) GetProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	project, ok := ps.loadProject(w, r, "Error al obtener proyecto")
	if !ok {
		return
	}
	isMember := false
	if project.TeamID != nil && project.OwnerID != actor.ID && !actor.IsAdmin() {
		var err error
		if isMember, err = ps.Teams.IsMember(ctx, *project.TeamID, actor.ID); err != nil {
			ps.Log.WithContext(ctx).Error("Failed to check membership", "team_id", *project.TeamID, "error", err)
			response.ServerError(w, "Error al obtener proyecto", err)
			return
		}
	}
	res := policy.Resource{Kind: policy.KindProject, OwnerID: project.OwnerID, IsMember: isMember}
	if !policy.CanPerform(actor, policy.ActionRead, res) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para ver este proyecto")
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"project": project})
}

// CreateProject handles the creation of a new project
func (ps *ProjectService) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req CreateProjectRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.Validate(req, projectMessages, "Datos de proyecto inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     actor.ID,
		TeamID:      req.TeamID,
	}
	if !ps.applyDates(w, project, req.projectFields) {
		return
	}
	if req.TeamID != nil && !ps.checkTeam(w, r, *req.TeamID, "No tienes permiso para crear proyectos en este equipo") {
		return
	}

	projectID, err := ps.Projects.Create(ctx, project)
	if err != nil {
		ps.Log.WithContext(ctx).Error("Failed to create project", "error", err)
		response.ServerError(w, "Error al crear proyecto", err)
		return
	}
	if created, err := ps.Projects.GetByID(ctx, projectID); err == nil {
		project = created
	}

	ps.announce(ctx, actor, models.EventProjectCreated, project)
	response.Success(w, http.StatusCreated, "Proyecto creado correctamente", response.Fields{"projectId": projectID, "project": project})
}

// UpdateProject merges the given fields into a project owned by the caller
func (ps *ProjectService) UpdateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req UpdateProjectRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.Validate(req, projectMessages, "Datos de proyecto inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	project, ok := ps.loadProject(w, r, "Error al actualizar proyecto")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindProject, OwnerID: project.OwnerID}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para actualizar este proyecto")
		return
	}
	if req.TeamID != nil && (project.TeamID == nil || *req.TeamID != *project.TeamID) {
		if !ps.checkTeam(w, r, *req.TeamID, "No tienes permiso para asignar el proyecto a este equipo") {
			return
		}
		project.TeamID = req.TeamID
	}

	previousStatus := project.Status
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Status != "" {
		project.Status = req.Status
	}
	if !ps.applyDates(w, project, req.projectFields) {
		return
	}

	if _, err := ps.Projects.Update(ctx, project); err != nil {
		ps.Log.WithContext(ctx).Error("Failed to update project", "project_id", project.ID, "error", err)
		response.ServerError(w, "Error al actualizar proyecto", err)
		return
	}
	if previousStatus != models.StatusCompleted && project.Status == models.StatusCompleted {
		ps.announce(ctx, actor, models.EventProjectCompleted, project)
	}
	response.Success(w, http.StatusOK, "Proyecto actualizado correctamente", response.Fields{"project": project})
}

// DeleteProject removes a project and, through the cascade, its tasks
func (ps *ProjectService) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	project, ok := ps.loadProject(w, r, "Error al eliminar proyecto")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindProject, OwnerID: project.OwnerID}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para eliminar este proyecto")
		return
	}
	if _, err := ps.Projects.Delete(ctx, project.ID); err != nil {
		ps.Log.WithContext(ctx).Error("Failed to delete project", "project_id", project.ID, "error", err)
		response.ServerError(w, "Error al eliminar proyecto", err)
		return
	}
	response.Success(w, http.StatusOK, "Proyecto eliminado correctamente", nil)
}

func (ps *ProjectService) loadProject(w http.ResponseWriter, r *http.Request, failure string) (*models.Project, bool) {
	projectID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgProjectNotFound)
		return nil, false
	}
	project, err := ps.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgProjectNotFound)
			return nil, false
		}
		ps.Log.WithContext(r.Context()).Error("Failed to load project", "project_id", projectID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	return project, true
}

// checkTeam verifies the team exists and the caller belongs to it
func (ps *ProjectService) checkTeam(w http.ResponseWriter, r *http.Request, teamID int64, forbidden string) bool {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	if _, err := ps.Teams.GetByID(ctx, teamID); err != nil {
		ps.teamError(w, r, err, "Error al verificar el equipo")
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	isMember, err := ps.Teams.IsMember(ctx, teamID, actor.ID)
	if err != nil {
		ps.Log.WithContext(ctx).Error("Failed to check membership", "team_id", teamID, "error", err)
		response.ServerError(w, "Error al verificar el equipo", err)
		return false
	}
	if !isMember {
		response.Error(w, http.StatusForbidden, forbidden)
		return false
	}
	return true
}

func (ps *ProjectService) teamError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	if errors.Is(err, sql.ErrNoRows) {
		response.Error(w, http.StatusNotFound, msgTeamNotFound)
		return
	}
	ps.Log.WithContext(r.Context()).Error("Failed to load team", "error", err)
	response.ServerError(w, failure, err)
}

func (ps *ProjectService) applyDates(w http.ResponseWriter, project *models.Project, f projectFields) bool {
	if f.StartDate != nil {
		start, err := request.ParseDate(*f.StartDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Fecha de inicio inválida")
			return false
		}
		project.StartDate = start
	}
	if f.EndDate != nil {
		end, err := request.ParseDate(*f.EndDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Fecha de fin inválida")
			return false
		}
		project.EndDate = end
	}
	return true
}

func (ps *ProjectService) announce(ctx context.Context, actor policy.Actor, event string, project *models.Project) {
	if project.TeamID == nil {
		return
	}
	title := "Nuevo proyecto creado"
	color := ""
	if event == models.EventProjectCompleted {
		title, color = "Proyecto completado", "#2eb886"
	}
	fields := []notify.Field{
		{Title: "Estado", Value: project.Status, Short: true},
		{Title: "Por", Value: actor.Username, Short: true},
	}
	if project.EndDate != nil {
		fields = append(fields, notify.Field{Title: "Fecha de fin", Value: project.EndDate.Format("2006-01-02"), Short: true})
	}
	msg := notify.Message{Title: title, Text: project.Name, Fields: fields, Color: color}
	ps.Dispatcher.Dispatch(ctx, *project.TeamID, event, notify.Reference{ID: project.ID, Type: "project"}, msg)
}
