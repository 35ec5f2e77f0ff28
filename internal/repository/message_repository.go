package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

const messageColumns = `id, sender_id, recipient_id, title, message, is_read, created_at`

// MessageRepository handles the messages table
type MessageRepository struct {
	DB *sql.DB
}

// NewMessageRepository creates a MessageRepository
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func scanMessage(s scanner) (*models.Message, error) {
	var m models.Message
	if err := s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Title, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts m as unread
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) (int64, error) {
	ts := now()
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO messages (sender_id, recipient_id, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.SenderID, m.RecipientID, m.Title, m.Message, false, ts)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID, m.IsRead, m.CreatedAt = id, false, ts
	return id, nil
}

// GetByID returns one message
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	return scanMessage(r.DB.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
}

func (r *MessageRepository) query(ctx context.Context, where string, args ...interface{}) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// ListByRecipient returns the inbox of userID, newest first
func (r *MessageRepository) ListByRecipient(ctx context.Context, userID int64) ([]models.Message, error) {
	return r.query(ctx, `recipient_id = ?`, userID)
}

// ListUnread returns the unread inbox of userID
func (r *MessageRepository) ListUnread(ctx context.Context, userID int64) ([]models.Message, error) {
	return r.query(ctx, `recipient_id = ? AND is_read = ?`, userID, false)
}

// MarkRead flags a message as read
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `UPDATE messages SET is_read = ? WHERE id = ?`, true, id))
}

// Delete removes a message
func (r *MessageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id))
}
