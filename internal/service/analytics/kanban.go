package analyticsService

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/nikhil/teamtasks/internal/analytics"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
)

// GetKanbanBoard buckets the caller's visible tasks into status columns
func (as *AnalyticsService) GetKanbanBoard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	tasks, err := as.visibleTasks(r, actor)
	if err != nil {
		as.Log.WithContext(r.Context()).Error("Failed to load kanban tasks", "error", err)
		response.ServerError(w, "Error al obtener tablero Kanban", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"kanbanBoard": analytics.KanbanBoard(tasks)})
}

// GetProjectKanbanBoard buckets one project's tasks into status columns
func (as *AnalyticsService) GetProjectKanbanBoard(w http.ResponseWriter, r *http.Request) {
	project, ok := as.loadProject(w, r, policy.ActionRead, msgNoProjectAccess, "Error al obtener tablero Kanban")
	if !ok {
		return
	}
	tasks, err := as.Tasks.ListByProject(r.Context(), project.ID)
	if err != nil {
		as.Log.WithContext(r.Context()).Error("Failed to load kanban tasks", "project_id", project.ID, "error", err)
		response.ServerError(w, "Error al obtener tablero Kanban", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"kanbanBoard": analytics.KanbanBoard(tasks)})
}

// MoveTask changes the status of a task from the board
func (as *AnalyticsService) MoveTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req struct {
		NewStatus string `json:"newStatus"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsValidStatus(req.NewStatus) {
		response.Error(w, http.StatusBadRequest, "Estado no válido")
		return
	}

	taskID, ok := request.PathID(r, "taskId")
	if !ok {
		response.Error(w, http.StatusNotFound, "Tarea no encontrada")
		return
	}
	task, err := as.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "Tarea no encontrada")
			return
		}
		as.Log.WithContext(ctx).Error("Failed to load task", "task_id", taskID, "error", err)
		response.ServerError(w, "Error al mover tarea en Kanban", err)
		return
	}
	res := policy.Resource{Kind: policy.KindTask, CreatorID: task.CreatedBy, AssigneeID: task.AssigneeID}
	if !policy.CanPerform(actor, policy.ActionMove, res) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para mover esta tarea")
		return
	}

	updated, err := as.TaskOps.SetStatus(ctx, actor, task, req.NewStatus)
	if err != nil {
		response.ServerError(w, "Error al mover tarea en Kanban", err)
		return
	}
	response.Success(w, http.StatusOK, "Tarea movida exitosamente", response.Fields{"task": updated})
}
