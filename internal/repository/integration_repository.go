package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikhil/teamtasks/internal/database"
	"github.com/nikhil/teamtasks/internal/models"
)

const (
	integrationColumns = `id, team_id, integration_type, webhook_url, channel_name, is_active, created_at, updated_at`
	historyLimit       = 50
)

// IntegrationRepository handles team_integrations with its settings and delivery history
type IntegrationRepository struct {
	DB *sql.DB
}

// NewIntegrationRepository creates an IntegrationRepository
func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{DB: db}
}

func scanIntegration(s scanner) (*models.Integration, error) {
	var i models.Integration
	err := s.Scan(&i.ID, &i.TeamID, &i.IntegrationType, &i.WebhookURL, &i.ChannelName, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *IntegrationRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Integration, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	integrations := []models.Integration{}
	for rows.Next() {
		i, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, *i)
	}
	return integrations, rows.Err()
}

// ListByTeam returns the team's integrations, each with its notification settings
func (r *IntegrationRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.Integration, error) {
	integrations, err := r.query(ctx, `SELECT `+integrationColumns+` FROM team_integrations WHERE team_id = ? ORDER BY id`, teamID)
	if err != nil {
		return nil, err
	}
	for i := range integrations {
		settings, err := r.Settings(ctx, integrations[i].ID)
		if err != nil {
			return nil, err
		}
		integrations[i].NotificationSettings = settings
	}
	return integrations, nil
}

// GetByID returns one integration without settings
func (r *IntegrationRepository) GetByID(ctx context.Context, id int64) (*models.Integration, error) {
	return scanIntegration(r.DB.QueryRowContext(ctx, `SELECT `+integrationColumns+` FROM team_integrations WHERE id = ?`, id))
}

// Upsert creates or replaces the (team, type) integration, activates it and rewrites its settings.
// Everything happens in one transaction.
func (r *IntegrationRepository) Upsert(ctx context.Context, in *models.Integration, settings []models.NotificationSetting) error {
	if in.ChannelName == "" {
		in.ChannelName = "general"
	}
	if len(settings) == 0 {
		settings = models.DefaultSettings()
	}

	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		ts := now()
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM team_integrations WHERE team_id = ? AND integration_type = ?`,
			in.TeamID, in.IntegrationType).Scan(&id)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx, `
				INSERT INTO team_integrations (team_id, integration_type, webhook_url, channel_name, is_active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				in.TeamID, in.IntegrationType, in.WebhookURL, in.ChannelName, true, ts, ts)
			if err != nil {
				return fmt.Errorf("insert integration: %w", err)
			}
			if id, err = result.LastInsertId(); err != nil {
				return err
			}
			in.CreatedAt = ts
		case err != nil:
			return err
		default:
			if _, err := tx.ExecContext(ctx, `
				UPDATE team_integrations SET webhook_url = ?, channel_name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
				in.WebhookURL, in.ChannelName, true, ts, id); err != nil {
				return fmt.Errorf("update integration: %w", err)
			}
		}

		in.ID, in.IsActive, in.UpdatedAt = id, true, ts
		if err := saveSettings(ctx, tx, id, settings); err != nil {
			return err
		}
		in.NotificationSettings = settings
		return nil
	})
}

// Settings returns the notification settings of an integration
func (r *IntegrationRepository) Settings(ctx context.Context, integrationID int64) ([]models.NotificationSetting, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT event_type, is_enabled FROM integration_notification_settings WHERE integration_id = ? ORDER BY id`, integrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []models.NotificationSetting{}
	for rows.Next() {
		var s models.NotificationSetting
		if err := rows.Scan(&s.EventType, &s.IsEnabled); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// SaveSettings replaces the settings of an integration
func (r *IntegrationRepository) SaveSettings(ctx context.Context, integrationID int64, settings []models.NotificationSetting) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		return saveSettings(ctx, tx, integrationID, settings)
	})
}

func saveSettings(ctx context.Context, q database.DBTX, integrationID int64, settings []models.NotificationSetting) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM integration_notification_settings WHERE integration_id = ?`, integrationID); err != nil {
		return err
	}
	for _, s := range settings {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO integration_notification_settings (integration_id, event_type, is_enabled) VALUES (?, ?, ?)`,
			integrationID, s.EventType, s.IsEnabled); err != nil {
			return fmt.Errorf("insert notification setting: %w", err)
		}
	}
	return nil
}

// UpdateStatus activates or deactivates an integration
func (r *IntegrationRepository) UpdateStatus(ctx context.Context, id int64, active bool) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE team_integrations SET is_active = ?, updated_at = ? WHERE id = ?`, active, now(), id))
}

// Delete removes an integration with its settings and history
func (r *IntegrationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM team_integrations WHERE id = ?`, id))
}

// ActiveForEvent returns the team's active integrations with the event enabled
func (r *IntegrationRepository) ActiveForEvent(ctx context.Context, teamID int64, event string) ([]models.Integration, error) {
	return r.query(ctx, `
		SELECT ti.id, ti.team_id, ti.integration_type, ti.webhook_url, ti.channel_name, ti.is_active, ti.created_at, ti.updated_at
		FROM team_integrations ti
		JOIN integration_notification_settings s ON s.integration_id = ti.id
		WHERE ti.team_id = ? AND ti.is_active = ? AND s.event_type = ? AND s.is_enabled = ?
		ORDER BY ti.id`, teamID, true, event, true)
}

// LogHistory records one delivery attempt
func (r *IntegrationRepository) LogHistory(ctx context.Context, h *models.NotificationHistory) error {
	ts := now()
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO integration_notification_history (integration_id, event_type, reference_id, reference_type, status, error_message, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.IntegrationID, h.EventType, h.ReferenceID, h.ReferenceType, h.Status, h.ErrorMessage, ts)
	if err != nil {
		return fmt.Errorf("insert notification history: %w", err)
	}
	h.ID, err = result.LastInsertId()
	h.SentAt = ts
	return err
}

// History returns the most recent delivery attempts, newest first. A non-positive limit means 50.
func (r *IntegrationRepository) History(ctx context.Context, integrationID int64, limit int) ([]models.NotificationHistory, error) {
	if limit <= 0 {
		limit = historyLimit
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, integration_id, event_type, reference_id, reference_type, status, error_message, sent_at
		FROM integration_notification_history
		WHERE integration_id = ?
		ORDER BY sent_at DESC, id DESC
		LIMIT ?`, integrationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.NotificationHistory{}
	for rows.Next() {
		var h models.NotificationHistory
		if err := rows.Scan(&h.ID, &h.IntegrationID, &h.EventType, &h.ReferenceID, &h.ReferenceType,
			&h.Status, &h.ErrorMessage, &h.SentAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
