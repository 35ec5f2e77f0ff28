package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

const commentSelect = `
	SELECT c.id, c.task_id, c.user_id, u.username, c.comment, c.created_at, c.updated_at
	FROM task_comments c
	LEFT JOIN users u ON c.user_id = u.id`

// CommentRepository handles the task_comments table
type CommentRepository struct {
	DB *sql.DB
}

// NewCommentRepository creates a CommentRepository
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

func scanComment(s scanner) (*models.Comment, error) {
	var c models.Comment
	if err := s.Scan(&c.ID, &c.TaskID, &c.UserID, &c.UserName, &c.Comment, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByTask returns the comments of taskID, newest first
func (r *CommentRepository) ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, commentSelect+` WHERE c.task_id = ? ORDER BY c.created_at DESC, c.id DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// GetByID returns a comment with its author's username
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	return scanComment(r.DB.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
}

// Create inserts a comment and returns its id
func (r *CommentRepository) Create(ctx context.Context, taskID, userID int64, text string) (int64, error) {
	ts := now()
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO task_comments (task_id, user_id, comment, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		taskID, userID, text, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return result.LastInsertId()
}

// Update replaces the comment text
func (r *CommentRepository) Update(ctx context.Context, id int64, text string) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE task_comments SET comment = ?, updated_at = ? WHERE id = ?`, text, now(), id))
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM task_comments WHERE id = ?`, id))
}
