package notificationRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	notificationService "github.com/nikhil/teamtasks/internal/service/notifications"
)

func NotificationRoutes(router *mux.Router, c *container.Container) {
	notificationService := notificationService.NewNotificationService(c)

	protectedRouter := router.PathPrefix("/notifications").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("", notificationService.GetNotifications).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", notificationService.GetNotifications).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", notificationService.DeleteAllNotifications).Methods(http.MethodDelete)
	protectedRouter.HandleFunc("/", notificationService.DeleteAllNotifications).Methods(http.MethodDelete)
	protectedRouter.HandleFunc("/unread", notificationService.GetUnreadNotifications).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/read-all", notificationService.MarkAllAsRead).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}", notificationService.GetNotification).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}/read", notificationService.MarkAsRead).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}", notificationService.DeleteNotification).Methods(http.MethodDelete)
}
