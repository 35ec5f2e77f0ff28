package taskService

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/notify"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/realtime"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	"github.com/nikhil/teamtasks/internal/validator"
)

const (
	msgTaskNotFound    = "Tarea no encontrada"
	msgProjectNotFound = "Proyecto no encontrado"
)

var taskMessages = validator.Messages{
	"title.required": "El título es obligatorio",
	"title.max":      "El título no puede exceder los 100 caracteres",
	"status.oneof":   "Estado no válido",
	"priority.oneof": "Prioridad no válida",
}

// TaskService handles task-related operations
type TaskService struct {
	Tasks      *repository.TaskRepository
	Projects   *repository.ProjectRepository
	Publisher  *realtime.Publisher
	Dispatcher *notify.Dispatcher
	Log        *logger.Logger
}

type taskFields struct {
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=pendiente en_progreso en_revision completada cancelada"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=baja media alta urgente"`
	DueDate     *string `json:"due_date"`
	AssigneeID  *int64  `json:"assignee_id"`
	ProjectID   *int64  `json:"project_id"`
}

// CreateTaskRequest represents the request body for task creation
type CreateTaskRequest struct {
	Title string `json:"title" validate:"required,max=100"`
	taskFields
}

// UpdateTaskRequest represents the request body for task updates. Absent fields keep their value.
type UpdateTaskRequest struct {
	Title string `json:"title" validate:"max=100"`
	taskFields
}

// NewTaskService initializes a new task service
func NewTaskService(c *container.Container) *TaskService {
	return &TaskService{
		Tasks:      c.Tasks,
		Projects:   c.Projects,
		Publisher:  c.Publisher,
		Dispatcher: c.Dispatcher,
		Log:        logger.NewLogger("task-service"),
	}
}

// GetAllTasks lists every task for admins and the assigned tasks for everyone else
func (ts *TaskService) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	var tasks []models.Task
	var err error
	if actor.IsAdmin() {
		tasks, err = ts.Tasks.List(r.Context())
	} else {
		tasks, err = ts.Tasks.ListByAssignee(r.Context(), actor.ID)
	}
	if err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to list tasks", "error", err)
		response.ServerError(w, "Error al obtener tareas", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(tasks), "tasks": tasks})
}

// GetMyTasks lists the tasks assigned to the caller
func (ts *TaskService) GetMyTasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	tasks, err := ts.Tasks.ListByAssignee(r.Context(), actor.ID)
	if err != nil {
		ts.Log.WithContext(r.Context()).Error("Failed to list own tasks", "user_id", actor.ID, "error", err)
		response.ServerError(w, "Error al obtener tus tareas", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(tasks), "tasks": tasks})
}

// GetTasksByProject lists a project's tasks for its owner or an admin
func (ts *TaskService) GetTasksByProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	projectID, ok := request.PathID(r, "projectId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgProjectNotFound)
		return
	}
	project, err := ts.Projects.GetByID(ctx, projectID)
	if err != nil {
		ts.projectError(w, r, err, "Error al obtener tareas del proyecto")
		return
	}
	if !policy.CanPerform(actor, policy.ActionManageTasks, policy.Resource{Kind: policy.KindProject, OwnerID: project.OwnerID}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para acceder a este proyecto")
		return
	}

	tasks, err := ts.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to list project tasks", "project_id", projectID, "error", err)
		response.ServerError(w, "Error al obtener tareas del proyecto", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(tasks), "tasks": tasks})
}

// GetTask returns one task to an admin, its assignee or its creator
func (ts *TaskService) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	task, ok := ts.loadTask(w, r, "Error al obtener tarea")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionRead, taskResource(task)) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para acceder a esta tarea")
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"task": task})
}

// CreateTask handles the creation of a new task
func (ts *TaskService) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req CreateTaskRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.Validate(req, taskMessages, "Datos de tarea inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	dueDate, err := request.ParseDate(deref(req.DueDate))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Fecha de vencimiento inválida")
		return
	}

	var project *models.Project
	if req.ProjectID != nil {
		var ok bool
		if project, ok = ts.targetProject(w, r, *req.ProjectID, "No tienes permiso para crear tareas en este proyecto"); !ok {
			return
		}
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     dueDate,
		AssigneeID:  req.AssigneeID,
		ProjectID:   req.ProjectID,
		CreatedBy:   actor.ID,
	}
	taskID, err := ts.Tasks.Create(ctx, task)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to create task", "error", err)
		response.ServerError(w, "Error al crear tarea", err)
		return
	}
	if created, err := ts.Tasks.GetByID(ctx, taskID); err == nil {
		task = created
	}

	ts.announce(ctx, actor, project, models.EventTaskCreated, task)
	if task.AssigneeID != nil {
		ts.assigned(ctx, actor, project, task)
	}

	response.Success(w, http.StatusCreated, "Tarea creada exitosamente", response.Fields{"task": task})
}

// UpdateTask handles partial updates of a task
func (ts *TaskService) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req UpdateTaskRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.Validate(req, taskMessages, "Datos de tarea inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	task, ok := ts.loadTask(w, r, "Error al actualizar tarea")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionUpdate, taskResource(task)) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para actualizar esta tarea")
		return
	}

	var project *models.Project
	if req.ProjectID != nil && (task.ProjectID == nil || *req.ProjectID != *task.ProjectID) {
		if project, ok = ts.targetProject(w, r, *req.ProjectID, "No tienes permiso para mover tareas a este proyecto"); !ok {
			return
		}
		task.ProjectID = req.ProjectID
	}

	previousStatus := task.Status
	previousAssignee := task.AssigneeID
	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.DueDate != nil {
		dueDate, err := request.ParseDate(*req.DueDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Fecha de vencimiento inválida")
			return
		}
		task.DueDate = dueDate
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}

	if _, err := ts.Tasks.Update(ctx, task); err != nil {
		ts.Log.WithContext(ctx).Error("Failed to update task", "task_id", task.ID, "error", err)
		response.ServerError(w, "Error al actualizar tarea", err)
		return
	}
	updated, err := ts.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to reload task", "task_id", task.ID, "error", err)
		response.ServerError(w, "Error al actualizar tarea", err)
		return
	}

	if project == nil {
		project = ts.projectOf(ctx, updated)
	}
	if previousStatus != models.StatusCompleted && updated.Status == models.StatusCompleted {
		ts.announce(ctx, actor, project, models.EventTaskCompleted, updated)
	}
	if updated.AssigneeID != nil && (previousAssignee == nil || *previousAssignee != *updated.AssigneeID) {
		ts.assigned(ctx, actor, project, updated)
	}

	response.Success(w, http.StatusOK, "Tarea actualizada exitosamente", response.Fields{"task": updated})
}

// UpdateTaskStatus changes only the status of a task
func (ts *TaskService) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req struct {
		Status string `json:"status"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsValidStatus(req.Status) {
		response.Error(w, http.StatusBadRequest, "Estado no válido")
		return
	}

	task, ok := ts.loadTask(w, r, "Error al actualizar estado de tarea")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionUpdate, taskResource(task)) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para actualizar esta tarea")
		return
	}

	updated, err := ts.SetStatus(ctx, actor, task, req.Status)
	if err != nil {
		response.ServerError(w, "Error al actualizar estado de tarea", err)
		return
	}
	response.Success(w, http.StatusOK, "Estado de tarea actualizado exitosamente", response.Fields{"task": updated})
}

// SetStatus stores a new status for task and announces completion. The caller has already authorized actor.
func (ts *TaskService) SetStatus(ctx context.Context, actor policy.Actor, task *models.Task, status string) (*models.Task, error) {
	if _, err := ts.Tasks.UpdateStatus(ctx, task.ID, status); err != nil {
		ts.Log.WithContext(ctx).Error("Failed to update task status", "task_id", task.ID, "error", err)
		return nil, err
	}
	updated, err := ts.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		ts.Log.WithContext(ctx).Error("Failed to reload task", "task_id", task.ID, "error", err)
		return nil, err
	}
	if task.Status != models.StatusCompleted && status == models.StatusCompleted {
		ts.announce(ctx, actor, ts.projectOf(ctx, updated), models.EventTaskCompleted, updated)
	}
	return updated, nil
}

// DeleteTask removes a task. Only its creator or an admin may do it.
func (ts *TaskService) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	task, ok := ts.loadTask(w, r, "Error al eliminar tarea")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionDelete, taskResource(task)) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para eliminar esta tarea")
		return
	}

	if _, err := ts.Tasks.Delete(ctx, task.ID); err != nil {
		ts.Log.WithContext(ctx).Error("Failed to delete task", "task_id", task.ID, "error", err)
		response.ServerError(w, "Error al eliminar tarea", err)
		return
	}
	response.Success(w, http.StatusOK, "Tarea eliminada exitosamente", nil)
}

func (ts *TaskService) loadTask(w http.ResponseWriter, r *http.Request, failure string) (*models.Task, bool) {
	taskID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgTaskNotFound)
		return nil, false
	}
	task, err := ts.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgTaskNotFound)
			return nil, false
		}
		ts.Log.WithContext(r.Context()).Error("Failed to load task", "task_id", taskID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	return task, true
}

// targetProject loads a project a task is being placed in and checks the caller may manage its tasks
func (ts *TaskService) targetProject(w http.ResponseWriter, r *http.Request, projectID int64, forbidden string) (*models.Project, bool) {
	actor, _ := middleware.ActorFrom(r.Context())
	project, err := ts.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		ts.projectError(w, r, err, "Error al verificar el proyecto")
		return nil, false
	}
	if !policy.CanPerform(actor, policy.ActionManageTasks, policy.Resource{Kind: policy.KindProject, OwnerID: project.OwnerID}) {
		response.Error(w, http.StatusForbidden, forbidden)
		return nil, false
	}
	return project, true
}

func (ts *TaskService) projectError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	if errors.Is(err, sql.ErrNoRows) {
		response.Error(w, http.StatusNotFound, msgProjectNotFound)
		return
	}
	ts.Log.WithContext(r.Context()).Error("Failed to load project", "error", err)
	response.ServerError(w, failure, err)
}

func (ts *TaskService) projectOf(ctx context.Context, task *models.Task) *models.Project {
	if task.ProjectID == nil {
		return nil
	}
	project, err := ts.Projects.GetByID(ctx, *task.ProjectID)
	if err != nil {
		ts.Log.WithContext(ctx).Warn("Failed to load project of task", "task_id", task.ID, "error", err)
		return nil
	}
	return project
}

// assigned tells the new assignee in-app and announces the assignment to the team's integrations
func (ts *TaskService) assigned(ctx context.Context, actor policy.Actor, project *models.Project, task *models.Task) {
	if *task.AssigneeID != actor.ID {
		taskID := task.ID
		ts.Publisher.Notify(ctx, models.Notification{
			UserID:      *task.AssigneeID,
			Title:       "Nueva tarea asignada",
			Message:     fmt.Sprintf("%s te ha asignado la tarea \"%s\"", actor.Username, task.Title),
			Type:        models.NotificationTaskAssigned,
			ReferenceID: &taskID,
		})
	}
	ts.announce(ctx, actor, project, models.EventTaskAssigned, task)
}

// announce sends a task event to the integrations of the project's team, when there is one
func (ts *TaskService) announce(ctx context.Context, actor policy.Actor, project *models.Project, event string, task *models.Task) {
	if project == nil || project.TeamID == nil {
		return
	}
	ts.Dispatcher.Dispatch(ctx, *project.TeamID, event, notify.Reference{ID: task.ID, Type: "task"}, TaskEventMessage(event, task, project, actor.Username))
}

// TaskEventMessage renders a task event for Slack and Teams
func TaskEventMessage(event string, task *models.Task, project *models.Project, by string) notify.Message {
	titles := map[string]string{
		models.EventTaskCreated:   "Nueva tarea creada",
		models.EventTaskAssigned:  "Tarea asignada",
		models.EventTaskCompleted: "Tarea completada",
	}
	fields := []notify.Field{
		{Title: "Estado", Value: task.Status, Short: true},
		{Title: "Prioridad", Value: task.Priority, Short: true},
	}
	if project != nil {
		fields = append(fields, notify.Field{Title: "Proyecto", Value: project.Name, Short: true})
	}
	if task.AssigneeName != nil {
		fields = append(fields, notify.Field{Title: "Asignada a", Value: *task.AssigneeName, Short: true})
	}
	if task.DueDate != nil {
		fields = append(fields, notify.Field{Title: "Fecha de vencimiento", Value: task.DueDate.Format("2006-01-02"), Short: true})
	}
	fields = append(fields, notify.Field{Title: "Por", Value: by, Short: true})

	msg := notify.Message{Title: titles[event], Text: task.Title, Fields: fields}
	if event == models.EventTaskCompleted {
		msg.Color = "#2eb886"
	}
	return msg
}

func taskResource(task *models.Task) policy.Resource {
	return policy.Resource{Kind: policy.KindTask, AssigneeID: task.AssigneeID, CreatorID: task.CreatedBy}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
