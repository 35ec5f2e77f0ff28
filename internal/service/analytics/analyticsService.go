package analyticsService

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	taskService "github.com/nikhil/teamtasks/internal/service/tasks"
)

const (
	msgProjectNotFound = "Proyecto no encontrado"
	msgNoProjectAccess = "No tienes permiso para acceder a este proyecto"
	msgNoReportAccess  = "No tienes permiso para ver este reporte"
)

// AnalyticsService serves the kanban, gantt and report views over tasks
type AnalyticsService struct {
	Tasks    *repository.TaskRepository
	Projects *repository.ProjectRepository
	Teams    *repository.TeamRepository
	Users    *repository.UserRepository
	TaskOps  *taskService.TaskService
	Log      *logger.Logger

	// now is replaced in tests
	now func() time.Time
}

func NewAnalyticsService(c *container.Container) *AnalyticsService {
	return &AnalyticsService{
		Tasks:    c.Tasks,
		Projects: c.Projects,
		Teams:    c.Teams,
		Users:    c.Users,
		TaskOps:  taskService.NewTaskService(c),
		Log:      logger.NewLogger("analytics-service"),
		now:      time.Now,
	}
}

// visibleTasks is every task for an admin and the assigned tasks otherwise
func (as *AnalyticsService) visibleTasks(r *http.Request, actor policy.Actor) ([]models.Task, error) {
	if actor.IsAdmin() {
		return as.Tasks.List(r.Context())
	}
	return as.Tasks.ListByAssignee(r.Context(), actor.ID)
}

// loadProject resolves {projectId} and checks action against it.
// Team membership only matters for reads.
func (as *AnalyticsService) loadProject(w http.ResponseWriter, r *http.Request, action policy.Action, forbidden, failure string) (*models.Project, bool) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	projectID, ok := request.PathID(r, "projectId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgProjectNotFound)
		return nil, false
	}
	project, err := as.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgProjectNotFound)
			return nil, false
		}
		as.Log.WithContext(ctx).Error("Failed to load project", "project_id", projectID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}

	isMember := false
	if action == policy.ActionRead && project.TeamID != nil && project.OwnerID != actor.ID && !actor.IsAdmin() {
		if isMember, err = as.Teams.IsMember(ctx, *project.TeamID, actor.ID); err != nil {
			as.Log.WithContext(ctx).Error("Failed to check membership", "team_id", *project.TeamID, "error", err)
			response.ServerError(w, failure, err)
			return nil, false
		}
	}
	res := policy.Resource{Kind: policy.KindProject, OwnerID: project.OwnerID, IsMember: isMember}
	if !policy.CanPerform(actor, action, res) {
		response.Error(w, http.StatusForbidden, forbidden)
		return nil, false
	}
	return project, true
}
