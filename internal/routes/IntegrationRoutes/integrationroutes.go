package integrationRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	integrationService "github.com/nikhil/teamtasks/internal/service/integrations"
)

func IntegrationRoutes(router *mux.Router, c *container.Container) {
	integrationService := integrationService.NewIntegrationService(c)

	protectedRouter := router.PathPrefix("/integrations").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("/team/{teamId:[0-9]+}", integrationService.GetTeamIntegrations).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/slack/team/{teamId:[0-9]+}", integrationService.ConfigureSlack).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/teams/team/{teamId:[0-9]+}", integrationService.ConfigureTeams).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{integrationId:[0-9]+}/test", integrationService.TestIntegration).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{integrationId:[0-9]+}/history", integrationService.GetIntegrationHistory).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{integrationId:[0-9]+}/status", integrationService.UpdateIntegrationStatus).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{integrationId:[0-9]+}", integrationService.DeleteIntegration).Methods(http.MethodDelete)
}
