package analyticsService

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/nikhil/teamtasks/internal/analytics"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
)

const dateOnlyLen = len("2006-01-02")

// GetUserProductivityReport reports on the tasks assigned to {userId} created in the requested range
func (as *AnalyticsService) GetUserProductivityReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	userID, ok := request.PathID(r, "userId")
	if !ok {
		response.Error(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if !policy.CanPerform(actor, policy.ActionReport, policy.Resource{Kind: policy.KindUser, OwnerID: userID}) {
		response.Error(w, http.StatusForbidden, msgNoReportAccess)
		return
	}

	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")
	from, err := request.ParseDate(startDate)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Fecha de inicio inválida")
		return
	}
	to, err := request.ParseDate(endDate)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Fecha de fin inválida")
		return
	}
	if to != nil && len(endDate) == dateOnlyLen {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	user, err := as.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		as.Log.WithContext(ctx).Error("Failed to load user", "user_id", userID, "error", err)
		response.ServerError(w, "Error al generar reporte de productividad", err)
		return
	}

	tasks, err := as.Tasks.ListByAssigneeInRange(ctx, userID, from, to)
	if err != nil {
		as.Log.WithContext(ctx).Error("Failed to load report tasks", "user_id", userID, "error", err)
		response.ServerError(w, "Error al generar reporte de productividad", err)
		return
	}
	report := analytics.BuildUserReport(*user, tasks, startDate, endDate)
	response.Success(w, http.StatusOK, "", response.Fields{"report": report})
}

// GetProjectProductivityReport reports on every task of a project
func (as *AnalyticsService) GetProjectProductivityReport(w http.ResponseWriter, r *http.Request) {
	failure := "Error al generar reporte de productividad del proyecto"
	project, ok := as.loadProject(w, r, policy.ActionReport, msgNoReportAccess, failure)
	if !ok {
		return
	}
	tasks, err := as.Tasks.ListByProject(r.Context(), project.ID)
	if err != nil {
		as.Log.WithContext(r.Context()).Error("Failed to load report tasks", "project_id", project.ID, "error", err)
		response.ServerError(w, failure, err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"report": analytics.BuildProjectReport(*project, tasks)})
}

// GetWorkloadAnalysis reports the active load of every user. Admin only.
func (as *AnalyticsService) GetWorkloadAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)
	failure := "Error al generar análisis de carga de trabajo"

	if !policy.CanPerform(actor, policy.ActionRead, policy.Resource{Kind: policy.KindWorkload}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para ver este análisis")
		return
	}

	users, err := as.Users.List(ctx)
	if err != nil {
		as.Log.WithContext(ctx).Error("Failed to list users", "error", err)
		response.ServerError(w, failure, err)
		return
	}
	entries := make([]analytics.WorkloadEntry, 0, len(users))
	for _, u := range users {
		tasks, err := as.Tasks.ListByAssignee(ctx, u.ID)
		if err != nil {
			as.Log.WithContext(ctx).Error("Failed to load user tasks", "user_id", u.ID, "error", err)
			response.ServerError(w, failure, err)
			return
		}
		entries = append(entries, analytics.BuildWorkload(u, tasks))
	}
	response.Success(w, http.StatusOK, "", response.Fields{"workloadAnalysis": entries})
}
