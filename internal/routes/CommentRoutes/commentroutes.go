package commentRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	commentService "github.com/nikhil/teamtasks/internal/service/comments"
)

func CommentRoutes(router *mux.Router, c *container.Container) {
	commentService := commentService.NewCommentService(c)

	protectedRouter := router.PathPrefix("/comments").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("", commentService.CreateComment).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/", commentService.CreateComment).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/task/{taskId:[0-9]+}", commentService.GetCommentsByTask).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", commentService.GetComment).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", commentService.UpdateComment).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id:[0-9]+}", commentService.DeleteComment).Methods(http.MethodDelete)
}
