package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nikhil/teamtasks/internal/models"
)

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
		t.assignee_id, u.username, t.project_id, p.name,
		t.created_by, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN users u ON t.assignee_id = u.id
	LEFT JOIN projects p ON t.project_id = p.id`

// TaskRepository handles the tasks table
type TaskRepository struct {
	DB *sql.DB
}

// NewTaskRepository creates a TaskRepository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func scanTask(s scanner) (*models.Task, error) {
	var t models.Task
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.AssigneeID, &t.AssigneeName, &t.ProjectID, &t.ProjectName,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Create inserts t. Empty status and priority fall back to pendiente and media.
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (int64, error) {
	ts := now()
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO tasks (title, description, status, priority, due_date, assignee_id, project_id, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssigneeID, t.ProjectID, t.CreatedBy, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID, t.CreatedAt, t.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID returns a task with assignee and project names
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
}

// List returns every task, newest first
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	return r.queryTasks(ctx, taskSelect+` ORDER BY t.created_at DESC, t.id DESC`)
}

// ListByAssignee returns the tasks assigned to userID
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID int64) ([]models.Task, error) {
	return r.queryTasks(ctx, taskSelect+` WHERE t.assignee_id = ? ORDER BY t.created_at DESC, t.id DESC`, userID)
}

// ListByProject returns the tasks of projectID in creation order
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	return r.queryTasks(ctx, taskSelect+` WHERE t.project_id = ? ORDER BY t.created_at, t.id`, projectID)
}

// ListByAssigneeInRange returns the tasks assigned to userID created inside [from, to]. Nil bounds are open.
func (r *TaskRepository) ListByAssigneeInRange(ctx context.Context, userID int64, from, to *time.Time) ([]models.Task, error) {
	clauses := []string{"t.assignee_id = ?"}
	args := []interface{}{userID}
	if from != nil {
		clauses = append(clauses, "t.created_at >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		clauses = append(clauses, "t.created_at <= ?")
		args = append(args, to.UTC())
	}
	query := taskSelect + ` WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY t.created_at, t.id`
	return r.queryTasks(ctx, query, args...)
}

// CountByProject returns total and completed task counts for a project
func (r *TaskRepository) CountByProject(ctx context.Context, projectID int64) (total, completed int, err error) {
	err = r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE project_id = ?`, models.StatusCompleted, projectID).Scan(&total, &completed)
	return total, completed, err
}

// Update overwrites the editable fields of t
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, assignee_id = ?, project_id = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssigneeID, t.ProjectID, now(), t.ID))
}

// UpdateStatus changes only the status
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id))
}

// Delete removes a task and its comments
func (r *TaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id))
}
