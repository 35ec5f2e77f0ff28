package projectRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	projectService "github.com/nikhil/teamtasks/internal/service/projects"
)

func ProjectRoutes(router *mux.Router, c *container.Container) {
	projectService := projectService.NewProjectService(c)

	protectedRouter := router.PathPrefix("/projects").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("", projectService.GetAllProjects).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", projectService.GetAllProjects).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", projectService.CreateProject).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/", projectService.CreateProject).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/my-projects", projectService.GetMyProjects).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/team/{teamId:[0-9]+}", projectService.GetProjectsByTeam).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", projectService.GetProject).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", projectService.UpdateProject).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id:[0-9]+}", projectService.DeleteProject).Methods(http.MethodDelete)
}
