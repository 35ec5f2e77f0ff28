package commentService

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/realtime"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
)

const (
	msgCommentNotFound = "Comentario no encontrado"
	msgTaskNotFound    = "Tarea no encontrada"
)

// CommentService handles comments on tasks
type CommentService struct {
	Comments  *repository.CommentRepository
	Tasks     *repository.TaskRepository
	Publisher *realtime.Publisher
	Log       *logger.Logger
}

func NewCommentService(c *container.Container) *CommentService {
	return &CommentService{
		Comments:  c.Comments,
		Tasks:     c.Tasks,
		Publisher: c.Publisher,
		Log:       logger.NewLogger("comment-service"),
	}
}

// GetCommentsByTask lists a task's comments, newest first
func (cs *CommentService) GetCommentsByTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, ok := request.PathID(r, "taskId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	if _, err := cs.Tasks.GetByID(ctx, taskID); err != nil {
		cs.taskError(w, r, err, "Error al obtener comentarios")
		return
	}

	comments, err := cs.Comments.ListByTask(ctx, taskID)
	if err != nil {
		cs.Log.WithContext(ctx).Error("Failed to list comments", "task_id", taskID, "error", err)
		response.ServerError(w, "Error al obtener comentarios", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(comments), "comments": comments})
}

func (cs *CommentService) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := cs.loadComment(w, r, "Error al obtener comentario")
	if !ok {
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"comment": comment})
}

// CreateComment adds a comment and tells the task's assignee and creator
func (cs *CommentService) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req struct {
		TaskID  int64  `json:"task_id"`
		Comment string `json:"comment"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TaskID == 0 || strings.TrimSpace(req.Comment) == "" {
		response.Error(w, http.StatusBadRequest, "El ID de la tarea y el comentario son obligatorios")
		return
	}

	task, err := cs.Tasks.GetByID(ctx, req.TaskID)
	if err != nil {
		cs.taskError(w, r, err, "Error al crear comentario")
		return
	}

	id, err := cs.Comments.Create(ctx, task.ID, actor.ID, req.Comment)
	if err != nil {
		cs.Log.WithContext(ctx).Error("Failed to create comment", "task_id", task.ID, "error", err)
		response.ServerError(w, "Error al crear comentario", err)
		return
	}
	comment, err := cs.Comments.GetByID(ctx, id)
	if err != nil {
		cs.Log.WithContext(ctx).Error("Failed to reload comment", "comment_id", id, "error", err)
		response.ServerError(w, "Error al crear comentario", err)
		return
	}

	cs.notifyParticipants(ctx, actor, task)
	response.Success(w, http.StatusCreated, "Comentario creado exitosamente", response.Fields{"comment": comment})
}

func (cs *CommentService) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req struct {
		Comment string `json:"comment"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		response.Error(w, http.StatusBadRequest, "El comentario es obligatorio")
		return
	}

	comment, ok := cs.loadComment(w, r, "Error al actualizar comentario")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindComment, OwnerID: comment.UserID}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para editar este comentario")
		return
	}

	if _, err := cs.Comments.Update(ctx, comment.ID, req.Comment); err != nil {
		cs.Log.WithContext(ctx).Error("Failed to update comment", "comment_id", comment.ID, "error", err)
		response.ServerError(w, "Error al actualizar comentario", err)
		return
	}
	updated, err := cs.Comments.GetByID(ctx, comment.ID)
	if err != nil {
		cs.Log.WithContext(ctx).Error("Failed to reload comment", "comment_id", comment.ID, "error", err)
		response.ServerError(w, "Error al actualizar comentario", err)
		return
	}
	response.Success(w, http.StatusOK, "Comentario actualizado exitosamente", response.Fields{"comment": updated})
}

func (cs *CommentService) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	comment, ok := cs.loadComment(w, r, "Error al eliminar comentario")
	if !ok {
		return
	}
	if !policy.CanPerform(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindComment, OwnerID: comment.UserID}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para eliminar este comentario")
		return
	}

	if _, err := cs.Comments.Delete(ctx, comment.ID); err != nil {
		cs.Log.WithContext(ctx).Error("Failed to delete comment", "comment_id", comment.ID, "error", err)
		response.ServerError(w, "Error al eliminar comentario", err)
		return
	}
	response.Success(w, http.StatusOK, "Comentario eliminado exitosamente", nil)
}

// notifyParticipants alerts the assignee and the creator of task, never the author
func (cs *CommentService) notifyParticipants(ctx context.Context, author policy.Actor, task *models.Task) {
	recipients := make([]int64, 0, 2)
	if task.AssigneeID != nil {
		recipients = append(recipients, *task.AssigneeID)
	}
	if task.AssigneeID == nil || *task.AssigneeID != task.CreatedBy {
		recipients = append(recipients, task.CreatedBy)
	}

	taskID := task.ID
	for _, userID := range recipients {
		if userID == author.ID || userID == 0 {
			continue
		}
		cs.Publisher.Notify(ctx, models.Notification{
			UserID:      userID,
			Title:       "Nuevo comentario",
			Message:     fmt.Sprintf("%s ha comentado en la tarea \"%s\"", author.Username, task.Title),
			Type:        models.NotificationComment,
			ReferenceID: &taskID,
		})
	}
}

func (cs *CommentService) loadComment(w http.ResponseWriter, r *http.Request, failure string) (*models.Comment, bool) {
	commentID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgCommentNotFound)
		return nil, false
	}
	comment, err := cs.Comments.GetByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgCommentNotFound)
			return nil, false
		}
		cs.Log.WithContext(r.Context()).Error("Failed to load comment", "comment_id", commentID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	return comment, true
}

func (cs *CommentService) taskError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	if errors.Is(err, sql.ErrNoRows) {
		response.Error(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	cs.Log.WithContext(r.Context()).Error("Failed to load task", "error", err)
	response.ServerError(w, failure, err)
}
