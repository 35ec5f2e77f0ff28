package models

import "time"

// Workflow statuses shared by tasks and projects
const (
	StatusPending    = "pendiente"
	StatusInProgress = "en_progreso"
	StatusInReview   = "en_revision"
	StatusCompleted  = "completada"
	StatusCancelled  = "cancelada"
)

// Task priorities
const (
	PriorityLow    = "baja"
	PriorityMedium = "media"
	PriorityHigh   = "alta"
	PriorityUrgent = "urgente"
)

// Statuses lists every status in board column order
var Statuses = []string{StatusPending, StatusInProgress, StatusInReview, StatusCompleted, StatusCancelled}

// Priorities lists every priority from lowest to highest
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Task is the central work item
type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	AssigneeID   *int64     `json:"assignee_id"`
	AssigneeName *string    `json:"assignee_name"`
	ProjectID    *int64     `json:"project_id"`
	ProjectName  *string    `json:"project_name"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsValidStatus reports whether s is a workflow status
func IsValidStatus(s string) bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is a task priority
func IsValidPriority(p string) bool {
	for _, priority := range Priorities {
		if p == priority {
			return true
		}
	}
	return false
}

// IsAssignedTo reports whether userID is the task's assignee
func (t *Task) IsAssignedTo(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
