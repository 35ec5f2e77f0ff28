package teamroutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	teamService "github.com/nikhil/teamtasks/internal/service/team"
)

func TeamRoutes(router *mux.Router, c *container.Container) {
	teamService := teamService.NewTeamService(c)

	protectedRouter := router.PathPrefix("/teams").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("", teamService.GetUserTeams).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", teamService.GetUserTeams).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", teamService.CreateTeam).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/", teamService.CreateTeam).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id:[0-9]+}", teamService.GetTeam).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}", teamService.UpdateTeam).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id:[0-9]+}", teamService.DeleteTeam).Methods(http.MethodDelete)
	protectedRouter.HandleFunc("/{id:[0-9]+}/members", teamService.GetTeamMembers).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}/members", teamService.AddTeamMember).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id:[0-9]+}/members/{userId:[0-9]+}", teamService.UpdateMemberRole).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}/members/{userId:[0-9]+}", teamService.RemoveTeamMember).Methods(http.MethodDelete)
}
