package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/testutil"
)

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := seedUser(t, db, "author")

	task := &models.Task{Title: "Review", CreatedBy: author.ID}
	_, err := NewTaskRepository(db).Create(ctx, task)
	require.NoError(t, err)

	repo := NewCommentRepository(db)
	first, err := repo.Create(ctx, task.ID, author.ID, "primero")
	require.NoError(t, err)
	second, err := repo.Create(ctx, task.ID, author.ID, "segundo")
	require.NoError(t, err)

	comments, err := repo.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second, comments[0].ID)
	require.NotNil(t, comments[0].UserName)
	assert.Equal(t, "author", *comments[0].UserName)

	ok, err := repo.Update(ctx, first, "editado")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "editado", got.Comment)

	ok, err = repo.Delete(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, first)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	user := seedUser(t, db, "notified")
	other := seedUser(t, db, "other")
	repo := NewNotificationRepository(db)

	ref := int64(7)
	n1 := &models.Notification{UserID: user.ID, Title: "Nueva tarea", Message: "m", Type: models.NotificationTaskAssigned, ReferenceID: &ref}
	n2 := &models.Notification{UserID: user.ID, Title: "Comentario", Message: "m", Type: models.NotificationComment}
	n3 := &models.Notification{UserID: other.ID, Title: "Equipo", Message: "m", Type: models.NotificationTeamAdded}
	for _, n := range []*models.Notification{n1, n2, n3} {
		_, err := repo.Create(ctx, n)
		require.NoError(t, err)
	}

	all, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, n2.ID, all[0].ID)

	ok, err := repo.MarkRead(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := repo.ListUnread(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, n2.ID, unread[0].ID)

	require.NoError(t, repo.MarkAllRead(ctx, user.ID))
	unread, err = repo.ListUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	got, err := repo.GetByID(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReferenceID)
	assert.Equal(t, ref, *got.ReferenceID)

	ok, err = repo.Delete(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repo.GetByID(ctx, n1.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.DeleteAll(ctx, user.ID))
	all, err = repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, all)

	others, err := repo.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	sender := seedUser(t, db, "sender")
	recipient := seedUser(t, db, "recipient")
	repo := NewMessageRepository(db)

	m := &models.Message{SenderID: sender.ID, RecipientID: recipient.ID, Title: "Hola", Message: "¿Revisas el PR?"}
	_, err := repo.Create(ctx, m)
	require.NoError(t, err)
	assert.False(t, m.IsRead)

	inbox, err := repo.ListByRecipient(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "¿Revisas el PR?", inbox[0].Message)

	sent, err := repo.ListByRecipient(ctx, sender.ID)
	require.NoError(t, err)
	assert.Empty(t, sent)

	ok, err := repo.MarkRead(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := repo.ListUnread(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	ok, err = repo.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repo.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
