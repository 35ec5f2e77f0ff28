package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/database"
	"github.com/nikhil/teamtasks/internal/models"
)

const listColumns = `id, title, board_id, position, created_at`

// ListRepository handles the lists table
type ListRepository struct {
	DB *sql.DB
}

// NewListRepository creates a ListRepository
func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{DB: db}
}

func scanList(s scanner) (*models.List, error) {
	var l models.List
	if err := s.Scan(&l.ID, &l.Title, &l.BoardID, &l.Position, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create appends a list to the end of the board
func (r *ListRepository) Create(ctx context.Context, boardID int64, title string) (*models.List, error) {
	list := &models.List{Title: title, BoardID: boardID}
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		position, err := listsOfBoard.nextPosition(ctx, tx, boardID)
		if err != nil {
			return err
		}
		ts := now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO lists (title, board_id, position, created_at) VALUES (?, ?, ?, ?)`,
			title, boardID, position, ts)
		if err != nil {
			return fmt.Errorf("insert list: %w", err)
		}
		list.ID, err = result.LastInsertId()
		list.Position, list.CreatedAt = position, ts
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetByID returns a list without its cards
func (r *ListRepository) GetByID(ctx context.Context, id int64) (*models.List, error) {
	return scanList(r.DB.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ?`, id))
}

// ListByBoard returns the lists of boardID ordered by position
func (r *ListRepository) ListByBoard(ctx context.Context, boardID int64) ([]models.List, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+listColumns+` FROM lists WHERE board_id = ? ORDER BY position, id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// UpdateTitle renames a list
func (r *ListRepository) UpdateTitle(ctx context.Context, id int64, title string) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `UPDATE lists SET title = ? WHERE id = ?`, title, id))
}

// Move places the list at the 1-based position and renumbers the whole board densely
func (r *ListRepository) Move(ctx context.Context, boardID, listID int64, position int) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		ids, err := listsOfBoard.ids(ctx, tx, boardID)
		if err != nil {
			return err
		}
		return listsOfBoard.renumber(ctx, tx, boardID, insertAt(without(ids, listID), listID, position))
	})
}

// Delete removes a list and closes the gap it leaves
func (r *ListRepository) Delete(ctx context.Context, boardID, listID int64) (bool, error) {
	var removed bool
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		removed, err = affected(tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ? AND board_id = ?`, listID, boardID))
		if err != nil || !removed {
			return err
		}
		ids, err := listsOfBoard.ids(ctx, tx, boardID)
		if err != nil {
			return err
		}
		return listsOfBoard.renumber(ctx, tx, boardID, ids)
	})
	return removed, err
}
