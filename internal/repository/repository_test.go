package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/testutil"
)

func seedUser(t *testing.T, db *sql.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hash",
		FullName: name + " Test",
	}
	_, err := NewUserRepository(db).Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	t.Run("create defaults role and round trips", func(t *testing.T) {
		u := seedUser(t, db, "ana")
		assert.Equal(t, models.RoleUser, u.Role)

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", got.Email)
		assert.Equal(t, "hash", got.Password)
		assert.Equal(t, "ana Test", got.FullName)

		byEmail, err := repo.GetByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		exists, err := repo.EmailExists(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("search matches any name column", func(t *testing.T) {
		seedUser(t, db, "bruno")
		users, err := repo.Search(ctx, "brun")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "bruno", users[0].Username)
	})

	t.Run("role update and delete", func(t *testing.T) {
		u := seedUser(t, db, "carla")
		ok, err := repo.UpdateRole(ctx, u.ID, models.RoleManager)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleManager, got.Role)

		ok, err = repo.Delete(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		ok, err = repo.Delete(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestTeamRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewTeamRepository(db)

	leader := seedUser(t, db, "leader")
	member := seedUser(t, db, "member")

	teamID, err := repo.Create(ctx, "Core", strPtr("platform"), leader.ID)
	require.NoError(t, err)

	t.Run("creator becomes leader", func(t *testing.T) {
		role, err := repo.MemberRole(ctx, teamID, leader.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TeamRoleLeader, role)

		team, err := repo.GetByID(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, "leader", team.CreatedByName)
		assert.Equal(t, 1, team.MemberCount)
	})

	t.Run("sole leader cannot be removed or demoted", func(t *testing.T) {
		require.NoError(t, repo.AddMember(ctx, teamID, member.ID, models.TeamRoleMember))

		assert.ErrorIs(t, repo.RemoveMember(ctx, teamID, leader.ID), ErrLastLeader)
		assert.ErrorIs(t, repo.UpdateMemberRole(ctx, teamID, leader.ID, models.TeamRoleMember), ErrLastLeader)

		isLeader, err := repo.IsLeader(ctx, teamID, leader.ID)
		require.NoError(t, err)
		assert.True(t, isLeader)
	})

	t.Run("second leader unlocks removal", func(t *testing.T) {
		require.NoError(t, repo.UpdateMemberRole(ctx, teamID, member.ID, models.TeamRoleLeader))
		require.NoError(t, repo.RemoveMember(ctx, teamID, leader.ID))

		isMember, err := repo.IsMember(ctx, teamID, leader.ID)
		require.NoError(t, err)
		assert.False(t, isMember)

		leaders, err := repo.CountLeaders(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, 1, leaders)
	})

	t.Run("non member is reported", func(t *testing.T) {
		assert.ErrorIs(t, repo.RemoveMember(ctx, teamID, leader.ID), ErrNotMember)
		assert.ErrorIs(t, repo.UpdateMemberRole(ctx, teamID, leader.ID, models.TeamRoleLeader), ErrNotMember)
	})

	t.Run("first team is the oldest membership", func(t *testing.T) {
		otherID, err := repo.Create(ctx, "Later", nil, member.ID)
		require.NoError(t, err)
		require.NotEqual(t, teamID, otherID)

		team, err := repo.FirstTeamOfUser(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, teamID, team.ID)

		teams, err := repo.ListByUser(ctx, member.ID)
		require.NoError(t, err)
		assert.Len(t, teams, 2)
	})

	t.Run("delete cascades members", func(t *testing.T) {
		ok, err := repo.Delete(ctx, teamID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.GetByID(ctx, teamID)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		members, err := repo.Members(ctx, teamID)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestProjectAndTaskRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)

	owner := seedUser(t, db, "owner")
	assignee := seedUser(t, db, "dev")

	p := &models.Project{Name: "Migration", OwnerID: owner.ID}
	_, err := projects.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)

	t.Run("task defaults and joined names", func(t *testing.T) {
		task := &models.Task{Title: "Schema", AssigneeID: &assignee.ID, ProjectID: &p.ID, CreatedBy: owner.ID}
		_, err := tasks.Create(ctx, task)
		require.NoError(t, err)

		got, err := tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, models.PriorityMedium, got.Priority)
		require.NotNil(t, got.AssigneeName)
		assert.Equal(t, "dev", *got.AssigneeName)
		require.NotNil(t, got.ProjectName)
		assert.Equal(t, "Migration", *got.ProjectName)
		assert.Nil(t, got.DueDate)
	})

	t.Run("counts and task_count", func(t *testing.T) {
		done := &models.Task{Title: "Data", Status: models.StatusCompleted, ProjectID: &p.ID, CreatedBy: owner.ID}
		_, err := tasks.Create(ctx, done)
		require.NoError(t, err)

		total, completed, err := tasks.CountByProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, 1, completed)

		got, err := projects.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TaskCount)
		assert.Equal(t, "owner", got.OwnerName)
	})

	t.Run("range filter is inclusive and open ended", func(t *testing.T) {
		past := time.Now().Add(-48 * time.Hour)
		future := time.Now().Add(48 * time.Hour)

		inRange, err := tasks.ListByAssigneeInRange(ctx, assignee.ID, &past, &future)
		require.NoError(t, err)
		assert.Len(t, inRange, 1)

		open, err := tasks.ListByAssigneeInRange(ctx, assignee.ID, nil, nil)
		require.NoError(t, err)
		assert.Len(t, open, 1)

		none, err := tasks.ListByAssigneeInRange(ctx, assignee.ID, &future, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("status update and delete", func(t *testing.T) {
		list, err := tasks.ListByProject(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)

		ok, err := tasks.UpdateStatus(ctx, list[0].ID, models.StatusInReview)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tasks.Delete(ctx, list[0].ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = tasks.GetByID(ctx, list[0].ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("project delete", func(t *testing.T) {
		ok, err := projects.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = projects.GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
