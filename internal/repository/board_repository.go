package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

const boardColumns = `id, title, description, user_id, created_at, updated_at`

// BoardRepository handles the boards table
type BoardRepository struct {
	DB *sql.DB
}

// NewBoardRepository creates a BoardRepository
func NewBoardRepository(db *sql.DB) *BoardRepository {
	return &BoardRepository{DB: db}
}

func scanBoard(s scanner) (*models.Board, error) {
	var b models.Board
	if err := s.Scan(&b.ID, &b.Title, &b.Description, &b.UserID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts b
func (r *BoardRepository) Create(ctx context.Context, b *models.Board) (int64, error) {
	ts := now()
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO boards (title, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		b.Title, b.Description, b.UserID, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert board: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	b.ID, b.CreatedAt, b.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID returns a board without its lists
func (r *BoardRepository) GetByID(ctx context.Context, id int64) (*models.Board, error) {
	return scanBoard(r.DB.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id))
}

// ListByUser returns the boards owned by userID
func (r *BoardRepository) ListByUser(ctx context.Context, userID int64) ([]models.Board, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *b)
	}
	return boards, rows.Err()
}

// Update changes title and description
func (r *BoardRepository) Update(ctx context.Context, id int64, title string, description *string) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE boards SET title = ?, description = ?, updated_at = ? WHERE id = ?`, title, description, now(), id))
}

// Delete removes a board with its lists and cards
func (r *BoardRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id))
}
