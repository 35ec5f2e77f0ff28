package messageRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	messageService "github.com/nikhil/teamtasks/internal/service/messages"
)

func MessageRoutes(router *mux.Router, c *container.Container) {
	messageService := messageService.NewMessageService(c)

	protectedRouter := router.PathPrefix("/messages").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)
	protectedRouter.HandleFunc("", messageService.SendMessage).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/", messageService.SendMessage).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/recipient/{userId:[0-9]+}", messageService.GetMessagesByRecipient).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/unread", messageService.GetUnreadMessages).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{messageId:[0-9]+}/read", messageService.MarkAsRead).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{messageId:[0-9]+}", messageService.DeleteMessage).Methods(http.MethodDelete)
}
