package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikhil/teamtasks/internal/database"
	"github.com/nikhil/teamtasks/internal/models"
)

// ErrLastLeader is returned when a change would leave a team without a leader
var ErrLastLeader = errors.New("team would be left without a leader")

// ErrNotMember is returned when the target user does not belong to the team
var ErrNotMember = errors.New("user is not a member of the team")

const teamSelect = `
	SELECT t.id, t.name, t.description, t.created_by, COALESCE(u.username, ''),
		(SELECT COUNT(*) FROM team_members tm WHERE tm.team_id = t.id) AS member_count,
		t.created_at, t.updated_at
	FROM teams t
	LEFT JOIN users u ON t.created_by = u.id`

// TeamRepository handles teams and team_members
type TeamRepository struct {
	DB *sql.DB
}

// NewTeamRepository creates a TeamRepository
func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func scanTeam(s scanner) (*models.Team, error) {
	var t models.Team
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedByName, &t.MemberCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) queryTeams(ctx context.Context, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// Create inserts the team and its creator as leader in one transaction
func (r *TeamRepository) Create(ctx context.Context, name string, description *string, creatorID int64) (int64, error) {
	var teamID int64
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		ts := now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO teams (name, description, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			name, description, creatorID, ts, ts)
		if err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
		if teamID, err = result.LastInsertId(); err != nil {
			return err
		}
		return addMember(ctx, tx, teamID, creatorID, models.TeamRoleLeader)
	})
	return teamID, err
}

// GetByID returns a team with creator name and member count
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	return scanTeam(r.DB.QueryRowContext(ctx, teamSelect+` WHERE t.id = ?`, id))
}

// List returns every team
func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	return r.queryTeams(ctx, teamSelect+` ORDER BY t.created_at DESC, t.id DESC`)
}

// ListByUser returns the teams userID belongs to
func (r *TeamRepository) ListByUser(ctx context.Context, userID int64) ([]models.Team, error) {
	return r.queryTeams(ctx,
		teamSelect+` JOIN team_members m ON m.team_id = t.id WHERE m.user_id = ? ORDER BY t.created_at DESC, t.id DESC`,
		userID)
}

// FirstTeamOfUser returns the user's earliest membership
func (r *TeamRepository) FirstTeamOfUser(ctx context.Context, userID int64) (*models.Team, error) {
	return scanTeam(r.DB.QueryRowContext(ctx,
		teamSelect+` JOIN team_members m ON m.team_id = t.id WHERE m.user_id = ? ORDER BY m.joined_at, m.id LIMIT 1`,
		userID))
}

// Update changes name and description
func (r *TeamRepository) Update(ctx context.Context, id int64, name string, description *string) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE teams SET name = ?, description = ?, updated_at = ? WHERE id = ?`, name, description, now(), id))
}

// Delete removes the team and, through cascades, its memberships
func (r *TeamRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id))
}

// Members lists the users of a team
func (r *TeamRepository) Members(ctx context.Context, teamID int64) ([]models.TeamMember, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.full_name, tm.role, tm.joined_at
		FROM team_members tm
		JOIN users u ON tm.user_id = u.id
		WHERE tm.team_id = ?
		ORDER BY tm.joined_at, tm.id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.Username, &m.Email, &m.FullName, &m.TeamRole, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// MemberRole returns the membership role, or sql.ErrNoRows when userID is not a member
func (r *TeamRepository) MemberRole(ctx context.Context, teamID, userID int64) (string, error) {
	return memberRole(ctx, r.DB, teamID, userID)
}

// IsMember reports whether userID belongs to teamID
func (r *TeamRepository) IsMember(ctx context.Context, teamID, userID int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = ? AND user_id = ?)`, teamID, userID).Scan(&exists)
	return exists, err
}

// IsLeader reports whether userID leads teamID
func (r *TeamRepository) IsLeader(ctx context.Context, teamID, userID int64) (bool, error) {
	role, err := r.MemberRole(ctx, teamID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == models.TeamRoleLeader, nil
}

// AddMember inserts a membership
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID int64, role string) error {
	return addMember(ctx, r.DB, teamID, userID, role)
}

// RemoveMember deletes a membership, refusing to remove the sole leader
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := guardLastLeader(ctx, tx, teamID, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID)
		return err
	})
}

// UpdateMemberRole changes a membership role, refusing to demote the sole leader
func (r *TeamRepository) UpdateMemberRole(ctx context.Context, teamID, userID int64, role string) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if role != models.TeamRoleLeader {
			if err := guardLastLeader(ctx, tx, teamID, userID); err != nil {
				return err
			}
		} else if _, err := memberRole(ctx, tx, teamID, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotMember
			}
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE team_members SET role = ? WHERE team_id = ? AND user_id = ?`, role, teamID, userID)
		return err
	})
}

// CountLeaders returns how many leaders teamID has
func (r *TeamRepository) CountLeaders(ctx context.Context, teamID int64) (int, error) {
	return countLeaders(ctx, r.DB, teamID)
}

func addMember(ctx context.Context, q database.DBTX, teamID, userID int64, role string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		teamID, userID, role, now())
	if err != nil {
		return fmt.Errorf("insert team member: %w", err)
	}
	return nil
}

func memberRole(ctx context.Context, q database.DBTX, teamID, userID int64) (string, error) {
	var role string
	err := q.QueryRowContext(ctx,
		`SELECT role FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID).Scan(&role)
	return role, err
}

func countLeaders(ctx context.Context, q database.DBTX, teamID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = ? AND role = ?`, teamID, models.TeamRoleLeader).Scan(&n)
	return n, err
}

// guardLastLeader fails when userID is the only leader left in teamID
func guardLastLeader(ctx context.Context, q database.DBTX, teamID, userID int64) error {
	role, err := memberRole(ctx, q, teamID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotMember
	}
	if err != nil {
		return err
	}
	if role != models.TeamRoleLeader {
		return nil
	}
	leaders, err := countLeaders(ctx, q, teamID)
	if err != nil {
		return err
	}
	if leaders <= 1 {
		return ErrLastLeader
	}
	return nil
}
