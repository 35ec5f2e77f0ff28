package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/testutil"
)

func TestIntegrationRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leader := seedUser(t, db, "lead")

	teamID, err := NewTeamRepository(db).Create(ctx, "Ops", nil, leader.ID)
	require.NoError(t, err)

	repo := NewIntegrationRepository(db)
	slack := &models.Integration{TeamID: teamID, IntegrationType: models.IntegrationSlack, WebhookURL: "https://hooks.slack.com/services/a"}

	t.Run("upsert creates with defaults", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, slack, nil))
		assert.Equal(t, "general", slack.ChannelName)
		assert.True(t, slack.IsActive)

		settings, err := repo.Settings(ctx, slack.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), settings)
	})

	t.Run("upsert replaces in place", func(t *testing.T) {
		again := &models.Integration{
			TeamID:          teamID,
			IntegrationType: models.IntegrationSlack,
			WebhookURL:      "https://hooks.slack.com/services/b",
			ChannelName:     "alerts",
		}
		custom := []models.NotificationSetting{{EventType: models.EventTaskCreated, IsEnabled: false}}
		require.NoError(t, repo.Upsert(ctx, again, custom))
		assert.Equal(t, slack.ID, again.ID)

		list, err := repo.ListByTeam(ctx, teamID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "alerts", list[0].ChannelName)
		assert.Equal(t, custom, list[0].NotificationSettings)
	})

	t.Run("active for event honours settings and status", func(t *testing.T) {
		active, err := repo.ActiveForEvent(ctx, teamID, models.EventTaskCreated)
		require.NoError(t, err)
		assert.Empty(t, active)

		require.NoError(t, repo.SaveSettings(ctx, slack.ID, models.DefaultSettings()))
		active, err = repo.ActiveForEvent(ctx, teamID, models.EventTaskCreated)
		require.NoError(t, err)
		assert.Len(t, active, 1)

		ok, err := repo.UpdateStatus(ctx, slack.ID, false)
		require.NoError(t, err)
		assert.True(t, ok)

		active, err = repo.ActiveForEvent(ctx, teamID, models.EventTaskCreated)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("history newest first with limit", func(t *testing.T) {
		for _, status := range []string{models.DeliverySuccess, models.DeliveryFailed, models.DeliverySuccess} {
			h := &models.NotificationHistory{IntegrationID: slack.ID, EventType: models.EventTest, Status: status}
			require.NoError(t, repo.LogHistory(ctx, h))
		}

		history, err := repo.History(ctx, slack.ID, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Greater(t, history[0].ID, history[1].ID)

		history, err = repo.History(ctx, slack.ID, 0)
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := repo.Delete(ctx, slack.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.GetByID(ctx, slack.ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestIntegrationUpsertRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM team_integrations").
		WithArgs(int64(3), models.IntegrationTeams).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec("UPDATE team_integrations SET webhook_url").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM integration_notification_settings").
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec("INSERT INTO integration_notification_settings").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewIntegrationRepository(db)
	in := &models.Integration{TeamID: 3, IntegrationType: models.IntegrationTeams, WebhookURL: "https://outlook.office.com/webhook/x"}
	err = repo.Upsert(context.Background(), in, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
