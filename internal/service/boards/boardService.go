package boardService

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	"github.com/nikhil/teamtasks/internal/validator"
)

const (
	msgBoardNotFound = "Tablero no encontrado"
	msgListNotFound  = "Lista no encontrada"
	msgCardNotFound  = "Tarjeta no encontrada"
	msgBadPosition   = "La posición debe ser un número mayor que cero"
	msgForbidden     = "No tienes permiso para acceder a este tablero"
)

var boardMessages = validator.Messages{
	"title.required": "El título es obligatorio",
	"title.max":      "El título no puede exceder los 255 caracteres",
	"text.required":  "El texto de la etiqueta es obligatorio",
	"text.max":       "La etiqueta no puede exceder los 50 caracteres",
}

// BoardService serves boards together with their nested lists and cards
type BoardService struct {
	Boards *repository.BoardRepository
	Lists  *repository.ListRepository
	Cards  *repository.CardRepository
	Log    *logger.Logger
}

type boardRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
}

type listRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type cardRequest struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Description *string        `json:"description"`
	DueDate     string         `json:"dueDate"`
	AssignedTo  *string        `json:"assignedTo"`
	Labels      []models.Label `json:"labels" validate:"dive"`
}

type positionRequest struct {
	ListID   int64 `json:"listId"`
	Position int   `json:"position"`
}

func NewBoardService(c *container.Container) *BoardService {
	return &BoardService{
		Boards: c.Boards,
		Lists:  c.Lists,
		Cards:  c.Cards,
		Log:    logger.NewLogger("board-service"),
	}
}

func (bs *BoardService) CreateBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req boardRequest
	if !decode(w, r, &req) {
		return
	}
	board := &models.Board{Title: req.Title, Description: req.Description, UserID: actor.ID}
	if _, err := bs.Boards.Create(ctx, board); err != nil {
		bs.Log.WithContext(ctx).Error("Failed to create board", "error", err)
		response.ServerError(w, "Error al crear el tablero", err)
		return
	}
	response.Success(w, http.StatusCreated, "Tablero creado correctamente", response.Fields{"board": board})
}

func (bs *BoardService) GetBoards(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	boards, err := bs.Boards.ListByUser(r.Context(), actor.ID)
	if err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to list boards", "error", err)
		response.ServerError(w, "Error al obtener los tableros", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(boards), "boards": boards})
}

// GetBoardDetails returns the board with its lists and each list's cards, all by position
func (bs *BoardService) GetBoardDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	board, ok := bs.loadBoard(w, r, "Error al obtener los detalles del tablero")
	if !ok {
		return
	}

	lists, err := bs.Lists.ListByBoard(ctx, board.ID)
	if err == nil {
		var cards []models.Card
		cards, err = bs.Cards.ListByBoard(ctx, board.ID)
		if err == nil {
			board.Lists = groupCards(lists, cards)
		}
	}
	if err != nil {
		bs.Log.WithContext(ctx).Error("Failed to load board contents", "board_id", board.ID, "error", err)
		response.ServerError(w, "Error al obtener los detalles del tablero", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"board": board})
}

func (bs *BoardService) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	var req boardRequest
	if !decode(w, r, &req) {
		return
	}
	board, ok := bs.loadBoard(w, r, "Error al actualizar el tablero")
	if !ok {
		return
	}

	if _, err := bs.Boards.Update(r.Context(), board.ID, req.Title, req.Description); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to update board", "board_id", board.ID, "error", err)
		response.ServerError(w, "Error al actualizar el tablero", err)
		return
	}
	board.Title, board.Description = req.Title, req.Description
	response.Success(w, http.StatusOK, "Tablero actualizado correctamente", response.Fields{"board": board})
}

func (bs *BoardService) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	board, ok := bs.loadBoard(w, r, "Error al eliminar el tablero")
	if !ok {
		return
	}
	if _, err := bs.Boards.Delete(r.Context(), board.ID); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to delete board", "board_id", board.ID, "error", err)
		response.ServerError(w, "Error al eliminar el tablero", err)
		return
	}
	response.Success(w, http.StatusOK, "Tablero eliminado correctamente", nil)
}

// CreateList appends a list after the board's last one
func (bs *BoardService) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !decode(w, r, &req) {
		return
	}
	board, ok := bs.loadBoard(w, r, "Error al crear la lista")
	if !ok {
		return
	}

	list, err := bs.Lists.Create(r.Context(), board.ID, req.Title)
	if err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to create list", "board_id", board.ID, "error", err)
		response.ServerError(w, "Error al crear la lista", err)
		return
	}
	response.Success(w, http.StatusCreated, "Lista creada correctamente", response.Fields{"list": list})
}

func (bs *BoardService) UpdateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !decode(w, r, &req) {
		return
	}
	list, ok := bs.loadList(w, r, "Error al actualizar la lista")
	if !ok {
		return
	}

	if _, err := bs.Lists.UpdateTitle(r.Context(), list.ID, req.Title); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to update list", "list_id", list.ID, "error", err)
		response.ServerError(w, "Error al actualizar la lista", err)
		return
	}
	response.Success(w, http.StatusOK, "Lista actualizada correctamente", nil)
}

// UpdateListPosition moves a list and renumbers every list of the board
func (bs *BoardService) UpdateListPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Position < 1 {
		response.Error(w, http.StatusBadRequest, msgBadPosition)
		return
	}
	list, ok := bs.loadList(w, r, "Error al actualizar la posición de la lista")
	if !ok {
		return
	}

	if err := bs.Lists.Move(r.Context(), list.BoardID, list.ID, req.Position); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to move list", "list_id", list.ID, "error", err)
		response.ServerError(w, "Error al actualizar la posición de la lista", err)
		return
	}
	response.Success(w, http.StatusOK, "Posición de lista actualizada correctamente", nil)
}

func (bs *BoardService) DeleteList(w http.ResponseWriter, r *http.Request) {
	list, ok := bs.loadList(w, r, "Error al eliminar la lista")
	if !ok {
		return
	}
	if _, err := bs.Lists.Delete(r.Context(), list.BoardID, list.ID); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to delete list", "list_id", list.ID, "error", err)
		response.ServerError(w, "Error al eliminar la lista", err)
		return
	}
	response.Success(w, http.StatusOK, "Lista eliminada correctamente", nil)
}

func (bs *BoardService) GetListWithCards(w http.ResponseWriter, r *http.Request) {
	list, ok := bs.loadList(w, r, "Error al obtener las tarjetas de la lista")
	if !ok {
		return
	}
	cards, err := bs.Cards.ListByList(r.Context(), list.ID)
	if err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to list cards", "list_id", list.ID, "error", err)
		response.ServerError(w, "Error al obtener las tarjetas de la lista", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(cards), "cards": cards})
}

// CreateCard appends a card after the list's last one
func (bs *BoardService) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !decode(w, r, &req) {
		return
	}
	due, err := request.ParseDate(req.DueDate)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Fecha de vencimiento inválida")
		return
	}
	list, ok := bs.loadList(w, r, "Error al crear la tarjeta")
	if !ok {
		return
	}

	card := &models.Card{
		Title:       req.Title,
		Description: req.Description,
		ListID:      list.ID,
		DueDate:     due,
		AssignedTo:  req.AssignedTo,
		Labels:      req.Labels,
	}
	if _, err := bs.Cards.Create(r.Context(), card); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to create card", "list_id", list.ID, "error", err)
		response.ServerError(w, "Error al crear la tarjeta", err)
		return
	}
	response.Success(w, http.StatusCreated, "Tarjeta creada correctamente", response.Fields{"card": card})
}

func (bs *BoardService) GetCard(w http.ResponseWriter, r *http.Request) {
	card, ok := bs.loadCard(w, r, "Error al obtener la tarjeta")
	if !ok {
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"card": card})
}

// UpdateCard overwrites the card fields and replaces its labels wholesale
func (bs *BoardService) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !decode(w, r, &req) {
		return
	}
	due, err := request.ParseDate(req.DueDate)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Fecha de vencimiento inválida")
		return
	}
	card, ok := bs.loadCard(w, r, "Error al actualizar la tarjeta")
	if !ok {
		return
	}

	card.Title, card.Description, card.DueDate, card.AssignedTo = req.Title, req.Description, due, req.AssignedTo
	card.Labels = req.Labels
	if card.Labels == nil {
		card.Labels = []models.Label{}
	}
	if _, err := bs.Cards.Update(r.Context(), card); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to update card", "card_id", card.ID, "error", err)
		response.ServerError(w, "Error al actualizar la tarjeta", err)
		return
	}
	response.Success(w, http.StatusOK, "Tarjeta actualizada correctamente", response.Fields{"card": card})
}

// UpdateCardPosition moves a card into listId at position, renumbering source and target lists
func (bs *BoardService) UpdateCardPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req positionRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Position < 1 {
		response.Error(w, http.StatusBadRequest, msgBadPosition)
		return
	}
	card, ok := bs.loadCard(w, r, "Error al actualizar la posición de la tarjeta")
	if !ok {
		return
	}

	target := card.ListID
	if req.ListID != 0 {
		target = req.ListID
	}
	if target != card.ListID {
		list, err := bs.Lists.GetByID(ctx, target)
		switch {
		case errors.Is(err, sql.ErrNoRows), err == nil && list.BoardID != boardOf(r):
			response.Error(w, http.StatusNotFound, msgListNotFound)
			return
		case err != nil:
			bs.Log.WithContext(ctx).Error("Failed to load list", "list_id", target, "error", err)
			response.ServerError(w, "Error al actualizar la posición de la tarjeta", err)
			return
		}
	}

	if err := bs.Cards.Move(ctx, card.ID, target, req.Position); err != nil {
		bs.Log.WithContext(ctx).Error("Failed to move card", "card_id", card.ID, "error", err)
		response.ServerError(w, "Error al actualizar la posición de la tarjeta", err)
		return
	}
	response.Success(w, http.StatusOK, "Posición de tarjeta actualizada correctamente", nil)
}

func (bs *BoardService) DeleteCard(w http.ResponseWriter, r *http.Request) {
	card, ok := bs.loadCard(w, r, "Error al eliminar la tarjeta")
	if !ok {
		return
	}
	if _, err := bs.Cards.Delete(r.Context(), card.ID); err != nil {
		bs.Log.WithContext(r.Context()).Error("Failed to delete card", "card_id", card.ID, "error", err)
		response.ServerError(w, "Error al eliminar la tarjeta", err)
		return
	}
	response.Success(w, http.StatusOK, "Tarjeta eliminada correctamente", nil)
}

// loadBoard resolves {boardId} and checks that the caller owns it or is an admin
func (bs *BoardService) loadBoard(w http.ResponseWriter, r *http.Request, failure string) (*models.Board, bool) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	boardID, ok := request.PathID(r, "boardId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgBoardNotFound)
		return nil, false
	}
	board, err := bs.Boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgBoardNotFound)
			return nil, false
		}
		bs.Log.WithContext(ctx).Error("Failed to load board", "board_id", boardID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	if !policy.CanPerform(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindBoard, OwnerID: board.UserID}) {
		response.Error(w, http.StatusForbidden, msgForbidden)
		return nil, false
	}
	return board, true
}

// loadList resolves {listId} within the accessible {boardId}
func (bs *BoardService) loadList(w http.ResponseWriter, r *http.Request, failure string) (*models.List, bool) {
	board, ok := bs.loadBoard(w, r, failure)
	if !ok {
		return nil, false
	}
	listID, ok := request.PathID(r, "listId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgListNotFound)
		return nil, false
	}
	list, err := bs.Lists.GetByID(r.Context(), listID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgListNotFound)
			return nil, false
		}
		bs.Log.WithContext(r.Context()).Error("Failed to load list", "list_id", listID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	if list.BoardID != board.ID {
		response.Error(w, http.StatusNotFound, msgListNotFound)
		return nil, false
	}
	return list, true
}

// loadCard resolves {cardId} within the accessible {boardId}
func (bs *BoardService) loadCard(w http.ResponseWriter, r *http.Request, failure string) (*models.Card, bool) {
	board, ok := bs.loadBoard(w, r, failure)
	if !ok {
		return nil, false
	}
	cardID, ok := request.PathID(r, "cardId")
	if !ok {
		response.Error(w, http.StatusNotFound, msgCardNotFound)
		return nil, false
	}
	card, err := bs.Cards.GetByID(r.Context(), cardID)
	if err == nil {
		var list *models.List
		list, err = bs.Lists.GetByID(r.Context(), card.ListID)
		if err == nil && list.BoardID != board.ID {
			err = sql.ErrNoRows
		}
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, msgCardNotFound)
			return nil, false
		}
		bs.Log.WithContext(r.Context()).Error("Failed to load card", "card_id", cardID, "error", err)
		response.ServerError(w, failure, err)
		return nil, false
	}
	return card, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := request.DecodeJSON(r, v); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validator.Validate(v, boardMessages, "Datos inválidos"); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func boardOf(r *http.Request) int64 {
	id, _ := request.PathID(r, "boardId")
	return id
}

// groupCards attaches cards, already ordered by list and position, to their lists
func groupCards(lists []models.List, cards []models.Card) []models.List {
	byList := make(map[int64][]models.Card, len(lists))
	for _, c := range cards {
		byList[c.ListID] = append(byList[c.ListID], c)
	}
	for i := range lists {
		lists[i].Cards = byList[lists[i].ID]
		if lists[i].Cards == nil {
			lists[i].Cards = []models.Card{}
		}
	}
	return lists
}
