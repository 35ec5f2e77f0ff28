package models

import "time"

// Board is a free-form kanban owned by a user, independent of tasks
type Board struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Lists       []List    `json:"lists,omitempty"`
}

// List is an ordered column of a board
type List struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	BoardID   int64     `json:"board_id"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	Cards     []Card    `json:"cards,omitempty"`
}

// Card is an ordered entry of a list
type Card struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	ListID      int64      `json:"list_id"`
	Position    int        `json:"position"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	Labels      []Label    `json:"labels"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Label tags a card
type Label struct {
	Text  string `json:"text" validate:"required,max=50"`
	Color string `json:"color" validate:"max=20"`
}
