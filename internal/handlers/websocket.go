package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/realtime"
	"github.com/nikhil/teamtasks/internal/response"
)

// WebSocketHandler upgrades authenticated requests and attaches them to the hub
type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewWebSocketHandler creates a WebSocketHandler. checkOrigin nil accepts any origin.
func NewWebSocketHandler(hub *realtime.Hub, checkOrigin func(r *http.Request) bool, log *logger.Logger) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// HandleWebSocket handles incoming WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No estás autorizado para acceder a este recurso")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote the error response
		h.log.WithContext(r.Context()).Warn("Failed to upgrade websocket", "user_id", actor.ID, "error", err)
		return
	}

	client := h.hub.NewClient(conn, actor.ID)
	if !h.hub.Attach(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
