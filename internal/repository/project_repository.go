package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

const projectSelect = `
	SELECT p.id, p.name, p.description, p.start_date, p.end_date, p.status, p.owner_id,
		COALESCE(u.username, ''), p.team_id,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count,
		p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN users u ON p.owner_id = u.id`

// ProjectRepository handles the projects table
type ProjectRepository struct {
	DB *sql.DB
}

// NewProjectRepository creates a ProjectRepository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

func scanProject(s scanner) (*models.Project, error) {
	var p models.Project
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.OwnerID,
		&p.OwnerName, &p.TeamID, &p.TaskCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) queryProjects(ctx context.Context, query string, args ...interface{}) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Create inserts p, defaulting its status to pendiente
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) (int64, error) {
	ts := now()
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO projects (name, description, start_date, end_date, status, owner_id, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.StartDate, p.EndDate, p.Status, p.OwnerID, p.TeamID, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID returns a project with owner name and task count
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
}

// List returns every project
func (r *ProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	return r.queryProjects(ctx, projectSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

// ListByOwner returns the projects ownerID owns
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Project, error) {
	return r.queryProjects(ctx, projectSelect+` WHERE p.owner_id = ? ORDER BY p.created_at DESC, p.id DESC`, ownerID)
}

// ListByTeam returns the projects of teamID
func (r *ProjectRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.Project, error) {
	return r.queryProjects(ctx, projectSelect+` WHERE p.team_id = ? ORDER BY p.created_at DESC, p.id DESC`, teamID)
}

// Update overwrites the editable fields of p
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, start_date = ?, end_date = ?, status = ?, team_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.StartDate, p.EndDate, p.Status, p.TeamID, now(), p.ID))
}

// Delete removes a project and its tasks
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id))
}
