// Package analytics derives kanban columns, gantt items, productivity reports and
// workload levels from task rows. Everything here is pure and safe to call concurrently.
package analytics

import "github.com/nikhil/teamtasks/internal/models"

// KanbanBoard buckets tasks into one column per status. Every column is present, possibly empty.
func KanbanBoard(tasks []models.Task) map[string][]models.Task {
	board := make(map[string][]models.Task, len(models.Statuses))
	for _, status := range models.Statuses {
		board[status] = []models.Task{}
	}
	for _, t := range tasks {
		if _, ok := board[t.Status]; ok {
			board[t.Status] = append(board[t.Status], t)
		}
	}
	return board
}
