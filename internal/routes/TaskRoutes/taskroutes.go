package taskRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	taskService "github.com/nikhil/teamtasks/internal/service/tasks"
)

func TaskRoutes(router *mux.Router, c *container.Container) {
	taskService := taskService.NewTaskService(c)

	protectedRouter := router.PathPrefix("/tasks").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("", taskService.GetAllTasks).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", taskService.GetAllTasks).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", taskService.CreateTask).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/", taskService.CreateTask).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/my-tasks", taskService.GetMyTasks).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/project/{projectId:[0-9]+}", taskService.GetTasksByProject).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", taskService.GetTask).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", taskService.UpdateTask).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id:[0-9]+}/status", taskService.UpdateTaskStatus).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}", taskService.DeleteTask).Methods(http.MethodDelete)
}
