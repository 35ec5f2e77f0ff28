package messageService

import (
	"database/sql"
	"errors"
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
	"github.com/nikhil/teamtasks/internal/validator"
)

const (
	msgMessageNotFound = "Mensaje no encontrado"
	msgNotAuthorized   = "No autorizado para realizar esta acción"
)

var messageMessages = validator.Messages{
	"recipient_id.required": "El destinatario es requerido",
	"title.required":        "El título es requerido",
	"message.required":      "El mensaje es requerido",
	"title.max":             "El título no puede exceder los 100 caracteres",
	"message.max":           "El mensaje no puede exceder los 1000 caracteres",
}

type MessageService struct {
	Messages  *repository.MessageRepository
	Users     *repository.UserRepository
	Publisher *realtime.Publisher
	Log       *logger.Logger
}

func NewMessageService(c *container.Container) *MessageService {
	return &MessageService{
		Messages:  c.Messages,
		Users:     c.Users,
		Publisher: c.Publisher,
		Log:       logger.NewLogger("message-service"),
	}
}

type sendMessageRequest struct {
	RecipientID int64  `json:"recipient_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=100"`
	Message     string `json:"message" validate:"required,max=1000"`
}

// SendMessage stores a direct message and pushes it to the recipient's live connections
func (ms *MessageService) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var body sendMessageRequest
	if err := request.DecodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Message = strings.TrimSpace(body.Message)
	if err := validator.Validate(body, messageMessages, "Datos del mensaje inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := ms.Users.GetByID(ctx, body.RecipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "Destinatario no encontrado")
			return
		}
		ms.Log.WithContext(ctx).Error("Failed to load recipient", "recipient_id", body.RecipientID, "error", err)
		response.ServerError(w, "Error al enviar el mensaje", err)
		return
	}

	msg := &models.Message{
		SenderID:    actor.ID,
		RecipientID: body.RecipientID,
		Title:       body.Title,
		Message:     body.Message,
	}
	if _, err := ms.Messages.Create(ctx, msg); err != nil {
		ms.Log.WithContext(ctx).Error("Failed to insert message", "error", err)
		response.ServerError(w, "Error al enviar el mensaje", err)
		return
	}

	ms.Publisher.PushMessage(msg)
	response.Success(w, http.StatusCreated, "Mensaje enviado exitosamente", response.Fields{"data": msg})
}

// GetMessagesByRecipient lists the messages received by {userId}, newest first
func (ms *MessageService) GetMessagesByRecipient(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	userID, ok := request.PathID(r, "userId")
	if !ok || !policy.CanPerform(actor, policy.ActionRead, policy.Resource{Kind: policy.KindMessage, OwnerID: userID}) {
		response.Error(w, http.StatusForbidden, msgNotAuthorized)
		return
	}

	messages, err := ms.Messages.ListByRecipient(r.Context(), userID)
	if err != nil {
		ms.Log.WithContext(r.Context()).Error("Failed to list messages", "user_id", userID, "error", err)
		response.ServerError(w, "Error al obtener los mensajes", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"data": messages})
}

func (ms *MessageService) GetUnreadMessages(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	messages, err := ms.Messages.ListUnread(r.Context(), actor.ID)
	if err != nil {
		ms.Log.WithContext(r.Context()).Error("Failed to list unread messages", "error", err)
		response.ServerError(w, "Error al obtener los mensajes no leídos", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"data": messages})
}

func (ms *MessageService) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	msg, ok := ms.loadOwnMessage(w, r, policy.ActionUpdate, "Error al marcar el mensaje como leído")
	if !ok {
		return
	}
	if _, err := ms.Messages.MarkRead(r.Context(), msg.ID); err != nil {
		ms.Log.WithContext(r.Context()).Error("Failed to mark message read", "message_id", msg.ID, "error", err)
		response.ServerError(w, "Error al marcar el mensaje como leído", err)
		return
	}
	response.Success(w, http.StatusOK, "Mensaje marcado como leído", nil)
}

func (ms *MessageService) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := ms.loadOwnMessage(w, r, policy.ActionDelete, "Error al eliminar el mensaje")
	if !ok {
		return
	}
	if _, err := ms.Messages.Delete(r.Context(), msg.ID); err != nil {
		ms.Log.WithContext(r.Context()).Error("Failed to delete message", "message_id", msg.ID, "error", err)
		response.ServerError(w, "Error al eliminar el mensaje", err)
		return
	}
	response.Success(w, http.StatusOK, "Mensaje eliminado exitosamente", nil)
}

// loadOwnMessage resolves {messageId} and only lets its recipient through
func (ms *MessageService) loadOwnMessage(w http.ResponseWriter, r *http.Request, action policy.Action, failure string) (*models.Message, bool) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	id, ok := request.PathID(r, "messageId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgMessageNotFound)
		return nil, false
	}
	msg, err := ms.Messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgMessageNotFound)
			return nil, false
		}
		ms.Log.WithContext(ctx).Error("Failed to load message", "message_id", id, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	if !policy.CanPerform(actor, action, policy.Resource{Kind: policy.KindMessage, OwnerID: msg.RecipientID}) {
		response.Error(w, http.StatusForbidden, msgNotAuthorized)
		return nil, false
	}
	return msg, true
}
