package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

const notificationColumns = `id, user_id, title, message, type, reference_id, is_read, created_at`

// NotificationRepository handles the notifications table
type NotificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository creates a NotificationRepository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func scanNotification(s scanner) (*models.Notification, error) {
	var n models.Notification
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.ReferenceID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) query(ctx context.Context, where string, args ...interface{}) ([]models.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// ListByUser returns every notification of userID, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	return r.query(ctx, `user_id = ?`, userID)
}

// ListUnread returns the unread notifications of userID, newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, userID int64) ([]models.Notification, error) {
	return r.query(ctx, `user_id = ? AND is_read = ?`, userID, false)
}

// GetByID returns one notification
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	return scanNotification(r.DB.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
}

// Create inserts n as unread
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (int64, error) {
	ts := now()
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, reference_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, n.Type, n.ReferenceID, false, ts)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	n.ID, n.IsRead, n.CreatedAt = id, false, ts
	return id, nil
}

// MarkRead flags one notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = ? WHERE id = ?`, true, id))
}

// MarkAllRead flags every notification of userID as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = ? WHERE user_id = ?`, true, userID)
	return err
}

// Delete removes one notification
func (r *NotificationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id))
}

// DeleteAll removes every notification of userID
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, userID)
	return err
}
