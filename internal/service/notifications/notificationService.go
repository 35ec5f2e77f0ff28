package notificationService

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
)

const msgNotificationNotFound = "Notificación no encontrada"

// NotificationService exposes the caller's in-app notifications
type NotificationService struct {
	Notifications *repository.NotificationRepository
	Log           *logger.Logger
}

func NewNotificationService(c *container.Container) *NotificationService {
	return &NotificationService{
		Notifications: c.Notifications,
		Log:           logger.NewLogger("notification-service"),
	}
}

func (ns *NotificationService) GetNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	notifications, err := ns.Notifications.ListByUser(r.Context(), actor.ID)
	if err != nil {
		ns.Log.WithContext(r.Context()).Error("Failed to list notifications", "error", err)
		response.ServerError(w, "Error al obtener notificaciones", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(notifications), "notifications": notifications})
}

func (ns *NotificationService) GetUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	notifications, err := ns.Notifications.ListUnread(r.Context(), actor.ID)
	if err != nil {
		ns.Log.WithContext(r.Context()).Error("Failed to list unread notifications", "error", err)
		response.ServerError(w, "Error al obtener notificaciones no leídas", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(notifications), "notifications": notifications})
}

func (ns *NotificationService) GetNotification(w http.ResponseWriter, r *http.Request) {
	n, ok := ns.loadNotification(w, r, "No tienes permiso para ver esta notificación", "Error al obtener notificación")
	if !ok {
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"notification": n})
}

func (ns *NotificationService) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	failure := "Error al marcar notificación como leída"
	n, ok := ns.loadNotification(w, r, "No tienes permiso para modificar esta notificación", failure)
	if !ok {
		return
	}
	if _, err := ns.Notifications.MarkRead(r.Context(), n.ID); err != nil {
		ns.Log.WithContext(r.Context()).Error("Failed to mark notification read", "notification_id", n.ID, "error", err)
		response.ServerError(w, failure, err)
		return
	}
	response.Success(w, http.StatusOK, "Notificación marcada como leída exitosamente", nil)
}

func (ns *NotificationService) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	if err := ns.Notifications.MarkAllRead(r.Context(), actor.ID); err != nil {
		ns.Log.WithContext(r.Context()).Error("Failed to mark all notifications read", "error", err)
		response.ServerError(w, "Error al marcar todas las notificaciones como leídas", err)
		return
	}
	response.Success(w, http.StatusOK, "Todas las notificaciones marcadas como leídas exitosamente", nil)
}

func (ns *NotificationService) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	failure := "Error al eliminar notificación"
	n, ok := ns.loadNotification(w, r, "No tienes permiso para eliminar esta notificación", failure)
	if !ok {
		return
	}
	if _, err := ns.Notifications.Delete(r.Context(), n.ID); err != nil {
		ns.Log.WithContext(r.Context()).Error("Failed to delete notification", "notification_id", n.ID, "error", err)
		response.ServerError(w, failure, err)
		return
	}
	response.Success(w, http.StatusOK, "Notificación eliminada exitosamente", nil)
}

func (ns *NotificationService) DeleteAllNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	if err := ns.Notifications.DeleteAll(r.Context(), actor.ID); err != nil {
		ns.Log.WithContext(r.Context()).Error("Failed to delete notifications", "error", err)
		response.ServerError(w, "Error al eliminar todas las notificaciones", err)
		return
	}
	response.Success(w, http.StatusOK, "Todas las notificaciones eliminadas exitosamente", nil)
}

func (ns *NotificationService) loadNotification(w http.ResponseWriter, r *http.Request, forbidden, failure string) (*models.Notification, bool) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	id, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgNotificationNotFound)
		return nil, false
	}
	n, err := ns.Notifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgNotificationNotFound)
			return nil, false
		}
		ns.Log.WithContext(ctx).Error("Failed to load notification", "notification_id", id, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	if !policy.CanPerform(actor, policy.ActionRead, policy.Resource{Kind: policy.KindNotification, OwnerID: n.UserID}) {
		response.Error(w, http.StatusForbidden, forbidden)
		return nil, false
	}
	return n, true
}
