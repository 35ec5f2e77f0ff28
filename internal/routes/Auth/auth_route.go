package authRoute

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/handlers"
	services "github.com/nikhil/teamtasks/internal/service/auth"
)

func RegisterAuthRoutes(router *mux.Router, c *container.Container) {
	authService := services.NewAuthService(c.Users, c.Tokens)
	authHandler := handlers.NewAuthHandler(authService)

	// Public routes without auth middleware
	publicRouter := router.PathPrefix("/users").Subrouter()
	publicRouter.HandleFunc("/register", authHandler.Signup).Methods(http.MethodPost)
	publicRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
}
