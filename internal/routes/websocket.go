package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/handlers"
)

// RegisterWebSocketRoutes registers all WebSocket related routes
func RegisterWebSocketRoutes(router *mux.Router, c *container.Container) {
	wsHandler := handlers.NewWebSocketHandler(c.Hub, nil, c.Log)

	// WebSocket endpoint with authentication via query parameter
	router.Handle("/ws", c.Auth.WebSocketAuthMiddleware(http.HandlerFunc(wsHandler.HandleWebSocket))).Methods(http.MethodGet)
}
