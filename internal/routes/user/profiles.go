package userRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	profileService "github.com/nikhil/teamtasks/internal/service/users"
)

func UserProfileRoutes(router *mux.Router, c *container.Container) {
	profileService := profileService.NewProfileService(c)

	// Protected routes requiring authentication
	protectedRouter := router.PathPrefix("/users").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)

	protectedRouter.HandleFunc("/profile", profileService.GetUserProfile).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/profile", profileService.UpdateUserProfile).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/change-password", profileService.ChangePassword).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/search", profileService.SearchUsers).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}/team", profileService.GetUserTeam).Methods(http.MethodGet)

	// User directory, admins only
	adminRouter := protectedRouter.NewRoute().Subrouter()
	adminRouter.Use(middleware.RestrictTo(models.RoleAdmin))
	adminRouter.HandleFunc("", profileService.GetAllUsers).Methods(http.MethodGet)
	adminRouter.HandleFunc("/", profileService.GetAllUsers).Methods(http.MethodGet)
	adminRouter.HandleFunc("/{id:[0-9]+}", profileService.GetUserByID).Methods(http.MethodGet)
	adminRouter.HandleFunc("/{id:[0-9]+}", profileService.UpdateUser).Methods(http.MethodPut)
	adminRouter.HandleFunc("/{id:[0-9]+}/role", profileService.ChangeUserRole).Methods(http.MethodPatch)
	adminRouter.HandleFunc("/{id:[0-9]+}", profileService.DeleteUser).Methods(http.MethodDelete)
}
