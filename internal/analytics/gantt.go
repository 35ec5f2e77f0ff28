package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/nikhil/teamtasks/internal/models"
)

const taskLeadTime = 7 * 24 * time.Hour

// GanttItem is one bar of the gantt chart
type GanttItem struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Start        *time.Time `json:"start"`
	End          time.Time  `json:"end"`
	Progress     int        `json:"progress"`
	Type         string     `json:"type"`
	HideChildren *bool      `json:"hideChildren,omitempty"`
	Project      string     `json:"project,omitempty"`
	DisplayOrder int        `json:"displayOrder"`
}

// TaskProgress maps a status to its completion percentage
func TaskProgress(status string) int {
	switch status {
	case models.StatusCompleted:
		return 100
	case models.StatusInReview:
		return 75
	case models.StatusInProgress:
		return 50
	}
	return 0
}

// ProjectProgress is the rounded share of completed tasks, 0 for an empty project
func ProjectProgress(total, completed int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func projectKey(id int64) string {
	return fmt.Sprintf("project-%d", id)
}

// ProjectGanttItem builds the bar of a project. A project without end date ends now.
func ProjectGanttItem(p models.Project, total, completed int, now time.Time) GanttItem {
	end := now
	if p.EndDate != nil {
		end = *p.EndDate
	}
	hide := false
	return GanttItem{
		ID:           projectKey(p.ID),
		Name:         p.Name,
		Start:        p.StartDate,
		End:          end,
		Progress:     ProjectProgress(total, completed),
		Type:         "project",
		HideChildren: &hide,
		DisplayOrder: 1,
	}
}

// ProjectGantt returns the project bar followed by one bar per task in the given order.
// A task starts a week before its due date, or with the project when it has none.
func ProjectGantt(p models.Project, tasks []models.Task, now time.Time) []GanttItem {
	completed := 0
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			completed++
		}
	}

	items := make([]GanttItem, 0, len(tasks)+1)
	items = append(items, ProjectGanttItem(p, len(tasks), completed, now))

	for i, t := range tasks {
		start := p.StartDate
		end := now
		switch {
		case t.DueDate != nil:
			s := t.DueDate.Add(-taskLeadTime)
			start = &s
			end = *t.DueDate
		case p.EndDate != nil:
			end = *p.EndDate
		}

		items = append(items, GanttItem{
			ID:           fmt.Sprintf("task-%d", t.ID),
			Name:         t.Title,
			Start:        start,
			End:          end,
			Progress:     TaskProgress(t.Status),
			Type:         "task",
			Project:      projectKey(p.ID),
			DisplayOrder: i + 2,
		})
	}
	return items
}
