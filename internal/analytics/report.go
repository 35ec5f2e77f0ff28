package analytics

import (
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

// Workload levels
const (
	WorkloadHigh   = "alto"
	WorkloadMedium = "medio"
	WorkloadLow    = "bajo"
	WorkloadNormal = "normal"
)

const hoursPerDay = 24

// Period echoes the requested report range
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// UserMetrics summarizes the tasks of one user
type UserMetrics struct {
	TotalTasks          int            `json:"totalTasks"`
	CompletedTasks      int            `json:"completedTasks"`
	InProgressTasks     int            `json:"inProgressTasks"`
	PendingTasks        int            `json:"pendingTasks"`
	CompletionRate      string         `json:"completionRate"`
	AvgCompletionTime   string         `json:"avgCompletionTime"`
	CompletedByPriority map[string]int `json:"completedByPriority"`
}

// UserReport is the productivity report of one user
type UserReport struct {
	UserID   int64       `json:"userId"`
	Username string      `json:"username"`
	Period   Period      `json:"period"`
	Metrics  UserMetrics `json:"metrics"`
}

// AssigneeStats counts the tasks of one assignee inside a project
type AssigneeStats struct {
	Username  string `json:"username"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// ProjectMetrics summarizes the tasks of one project
type ProjectMetrics struct {
	TotalTasks      int                      `json:"totalTasks"`
	CompletedTasks  int                      `json:"completedTasks"`
	InProgressTasks int                      `json:"inProgressTasks"`
	PendingTasks    int                      `json:"pendingTasks"`
	ReviewTasks     int                      `json:"reviewTasks"`
	ProjectProgress string                   `json:"projectProgress"`
	TasksByPriority map[string]int           `json:"tasksByPriority"`
	TasksByUser     map[string]AssigneeStats `json:"tasksByUser"`
}

// ProjectReport is the productivity report of one project
type ProjectReport struct {
	ProjectID   int64          `json:"projectId"`
	ProjectName string         `json:"projectName"`
	StartDate   interface{}    `json:"startDate"`
	EndDate     interface{}    `json:"endDate"`
	Metrics     ProjectMetrics `json:"metrics"`
}

// WorkloadMetrics counts the active load of a user
type WorkloadMetrics struct {
	TotalActiveTasks int    `json:"totalActiveTasks"`
	PendingTasks     int    `json:"pendingTasks"`
	InProgressTasks  int    `json:"inProgressTasks"`
	UrgentTasks      int    `json:"urgentTasks"`
	WorkloadLevel    string `json:"workloadLevel"`
}

// WorkloadEntry is the workload of one user
type WorkloadEntry struct {
	UserID   int64           `json:"userId"`
	Username string          `json:"username"`
	Metrics  WorkloadMetrics `json:"metrics"`
}

func percent(part, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(total)*100)
}

func priorityCounts() map[string]int {
	counts := make(map[string]int, len(models.Priorities))
	for _, p := range models.Priorities {
		counts[p] = 0
	}
	return counts
}

// BuildUserReport computes the productivity of user over tasks.
// Empty bounds are reported as "All time" and "Present".
func BuildUserReport(user models.User, tasks []models.Task, startDate, endDate string) UserReport {
	if startDate == "" {
		startDate = "All time"
	}
	if endDate == "" {
		endDate = "Present"
	}

	m := UserMetrics{TotalTasks: len(tasks), CompletedByPriority: priorityCounts()}
	var days float64
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			m.CompletedTasks++
			m.CompletedByPriority[t.Priority]++
			days += t.UpdatedAt.Sub(t.CreatedAt).Hours() / hoursPerDay
		case models.StatusInProgress:
			m.InProgressTasks++
		case models.StatusPending:
			m.PendingTasks++
		}
	}

	avg := 0.0
	if m.CompletedTasks > 0 {
		avg = days / float64(m.CompletedTasks)
	}
	m.CompletionRate = percent(m.CompletedTasks, m.TotalTasks)
	m.AvgCompletionTime = fmt.Sprintf("%.2f días", avg)

	return UserReport{
		UserID:   user.ID,
		Username: user.Username,
		Period:   Period{StartDate: startDate, EndDate: endDate},
		Metrics:  m,
	}
}

// BuildProjectReport computes the productivity of a project. Unassigned tasks are left out of TasksByUser.
func BuildProjectReport(p models.Project, tasks []models.Task) ProjectReport {
	m := ProjectMetrics{
		TotalTasks:      len(tasks),
		TasksByPriority: priorityCounts(),
		TasksByUser:     map[string]AssigneeStats{},
	}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			m.CompletedTasks++
		case models.StatusInProgress:
			m.InProgressTasks++
		case models.StatusPending:
			m.PendingTasks++
		case models.StatusInReview:
			m.ReviewTasks++
		}
		m.TasksByPriority[t.Priority]++

		if t.AssigneeID == nil {
			continue
		}
		key := fmt.Sprintf("%d", *t.AssigneeID)
		stats, ok := m.TasksByUser[key]
		if !ok {
			stats.Username = "Unknown"
			if t.AssigneeName != nil {
				stats.Username = *t.AssigneeName
			}
		}
		stats.Total++
		if t.Status == models.StatusCompleted {
			stats.Completed++
		}
		m.TasksByUser[key] = stats
	}
	m.ProjectProgress = percent(m.CompletedTasks, m.TotalTasks)

	report := ProjectReport{ProjectID: p.ID, ProjectName: p.Name, Metrics: m}
	if p.StartDate != nil {
		report.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		report.EndDate = *p.EndDate
	}
	return report
}

// WorkloadLevel classifies a user's active load
func WorkloadLevel(active, urgent int) string {
	switch {
	case active > 10 || urgent > 3:
		return WorkloadHigh
	case active > 5 || urgent > 1:
		return WorkloadMedium
	case active == 0:
		return WorkloadLow
	}
	return WorkloadNormal
}

// BuildWorkload counts pending, in-progress and urgent active tasks of user
func BuildWorkload(user models.User, tasks []models.Task) WorkloadEntry {
	var m WorkloadMetrics
	for _, t := range tasks {
		active := t.Status == models.StatusPending || t.Status == models.StatusInProgress
		switch t.Status {
		case models.StatusPending:
			m.PendingTasks++
		case models.StatusInProgress:
			m.InProgressTasks++
		}
		if active && t.Priority == models.PriorityUrgent {
			m.UrgentTasks++
		}
	}
	m.TotalActiveTasks = m.PendingTasks + m.InProgressTasks
	m.WorkloadLevel = WorkloadLevel(m.TotalActiveTasks, m.UrgentTasks)

	return WorkloadEntry{UserID: user.ID, Username: user.Username, Metrics: m}
}
