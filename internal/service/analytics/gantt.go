package analyticsService

import (
	"net/http"

	"github.com/nikhil/teamtasks/internal/analytics"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/response"
)

// GetProjectsGanttData returns one bar per visible project
func (as *AnalyticsService) GetProjectsGanttData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var projects []models.Project
	var err error
	if actor.IsAdmin() {
		projects, err = as.Projects.List(ctx)
	} else {
		projects, err = as.Projects.ListByOwner(ctx, actor.ID)
	}
	if err != nil {
		as.Log.WithContext(ctx).Error("Failed to list projects for gantt", "error", err)
		response.ServerError(w, "Error al obtener datos de Gantt para proyectos", err)
		return
	}

	now := as.now()
	items := make([]analytics.GanttItem, 0, len(projects))
	for _, p := range projects {
		total, completed, err := as.Tasks.CountByProject(ctx, p.ID)
		if err != nil {
			as.Log.WithContext(ctx).Error("Failed to count project tasks", "project_id", p.ID, "error", err)
			response.ServerError(w, "Error al obtener datos de Gantt para proyectos", err)
			return
		}
		items = append(items, analytics.ProjectGanttItem(p, total, completed, now))
	}
	response.Success(w, http.StatusOK, "", response.Fields{"ganttData": items})
}

// GetProjectGanttData returns the project bar followed by its tasks
func (as *AnalyticsService) GetProjectGanttData(w http.ResponseWriter, r *http.Request) {
	project, ok := as.loadProject(w, r, policy.ActionReport, msgNoProjectAccess, "Error al obtener datos de Gantt para el proyecto")
	if !ok {
		return
	}
	tasks, err := as.Tasks.ListByProject(r.Context(), project.ID)
	if err != nil {
		as.Log.WithContext(r.Context()).Error("Failed to list project tasks", "project_id", project.ID, "error", err)
		response.ServerError(w, "Error al obtener datos de Gantt para el proyecto", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"ganttData": analytics.ProjectGantt(*project, tasks, as.now())})
}
