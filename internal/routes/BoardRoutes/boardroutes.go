package boardRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	boardService "github.com/nikhil/teamtasks/internal/service/boards"
)

func BoardRoutes(router *mux.Router, c *container.Container) {
	boardService := boardService.NewBoardService(c)

	protectedRouter := router.PathPrefix("/boards").Subrouter()
	protectedRouter.Use(c.Auth.AuthMiddleware)

	// Boards
	protectedRouter.HandleFunc("", boardService.GetBoards).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", boardService.GetBoards).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", boardService.CreateBoard).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/", boardService.CreateBoard).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}", boardService.GetBoardDetails).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}", boardService.UpdateBoard).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}", boardService.DeleteBoard).Methods(http.MethodDelete)

	// Lists
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/lists", boardService.CreateList).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/lists/{listId:[0-9]+}", boardService.UpdateList).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/lists/{listId:[0-9]+}/position", boardService.UpdateListPosition).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/lists/{listId:[0-9]+}", boardService.DeleteList).Methods(http.MethodDelete)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/lists/{listId:[0-9]+}/cards", boardService.GetListWithCards).Methods(http.MethodGet)

	// Cards
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/lists/{listId:[0-9]+}/cards", boardService.CreateCard).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/cards/{cardId:[0-9]+}", boardService.GetCard).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/cards/{cardId:[0-9]+}", boardService.UpdateCard).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/cards/{cardId:[0-9]+}/position", boardService.UpdateCardPosition).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{boardId:[0-9]+}/cards/{cardId:[0-9]+}", boardService.DeleteCard).Methods(http.MethodDelete)
}
