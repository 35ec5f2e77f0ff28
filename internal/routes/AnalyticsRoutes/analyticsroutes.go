package analyticsRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	analyticsService "github.com/nikhil/teamtasks/internal/service/analytics"
)

// AnalyticsRoutes mounts the kanban, gantt and report views
func AnalyticsRoutes(router *mux.Router, c *container.Container) {
	analyticsService := analyticsService.NewAnalyticsService(c)

	kanbanRouter := router.PathPrefix("/kanban").Subrouter()
	kanbanRouter.Use(c.Auth.AuthMiddleware)
	kanbanRouter.HandleFunc("", analyticsService.GetKanbanBoard).Methods(http.MethodGet)
	kanbanRouter.HandleFunc("/", analyticsService.GetKanbanBoard).Methods(http.MethodGet)
	kanbanRouter.HandleFunc("/project/{projectId:[0-9]+}", analyticsService.GetProjectKanbanBoard).Methods(http.MethodGet)
	kanbanRouter.HandleFunc("/task/{taskId:[0-9]+}/move", analyticsService.MoveTask).Methods(http.MethodPatch)

	ganttRouter := router.PathPrefix("/gantt").Subrouter()
	ganttRouter.Use(c.Auth.AuthMiddleware)
	ganttRouter.HandleFunc("/projects", analyticsService.GetProjectsGanttData).Methods(http.MethodGet)
	ganttRouter.HandleFunc("/project/{projectId:[0-9]+}", analyticsService.GetProjectGanttData).Methods(http.MethodGet)

	reportRouter := router.PathPrefix("/reports").Subrouter()
	reportRouter.Use(c.Auth.AuthMiddleware)
	reportRouter.HandleFunc("/user/{userId:[0-9]+}", analyticsService.GetUserProductivityReport).Methods(http.MethodGet)
	reportRouter.HandleFunc("/project/{projectId:[0-9]+}", analyticsService.GetProjectProductivityReport).Methods(http.MethodGet)
	reportRouter.HandleFunc("/workload", analyticsService.GetWorkloadAnalysis).Methods(http.MethodGet)
}
