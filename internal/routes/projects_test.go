package routes_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ganttItem(t *testing.T, items []interface{}, name string) map[string]interface{} {
	t.Helper()
	for _, it := range items {
		item := it.(map[string]interface{})
		if item["name"] == name {
			return item
		}
	}
	t.Fatalf("gantt item %q not found", name)
	return nil
}

func TestProjectOwnershipGates(t *testing.T) {
	api := newAPI(t)
	ownerToken, _ := api.register("olga")
	otherToken, _ := api.register("pablo")
	_, adminID := api.register("quique")
	adminToken := api.promote(adminID, "quique")

	_, body := api.do(http.MethodPost, "/api/v1/teams", ownerToken, map[string]string{"name": "Producto"})
	teamID := id(body["teamId"])

	t.Run("non member cannot create in the team", func(t *testing.T) {
		code, body := api.do(http.MethodPost, "/api/v1/projects", otherToken, map[string]interface{}{
			"name": "Intruso", "team_id": teamID,
		})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "No tienes permiso para crear proyectos en este equipo", body["message"])
	})

	code, body := api.do(http.MethodPost, "/api/v1/projects", ownerToken, map[string]interface{}{
		"name": "Lanzamiento", "team_id": teamID,
	})
	require.Equal(t, http.StatusCreated, code, body)
	projectID := id(body["projectId"])
	path := fmt.Sprintf("/api/v1/projects/%d", projectID)

	t.Run("other user is forbidden", func(t *testing.T) {
		code, _ := api.do(http.MethodPut, path, otherToken, map[string]string{"name": "Robado"})
		assert.Equal(t, http.StatusForbidden, code)
		code, _ = api.do(http.MethodDelete, path, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, code)

		code, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/reports/project/%d", projectID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("owner and admin pass", func(t *testing.T) {
		code, body := api.do(http.MethodPut, path, ownerToken, map[string]string{"name": "Lanzamiento v2"})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, "Lanzamiento v2", body["project"].(map[string]interface{})["name"])

		code, body = api.do(http.MethodPut, path, adminToken, map[string]string{"status": "en_progreso"})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, "en_progreso", body["project"].(map[string]interface{})["status"])

		code, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/reports/project/%d", projectID), ownerToken, nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, float64(projectID), body["report"].(map[string]interface{})["projectId"])

		code, _ = api.do(http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, code)
		code, _ = api.do(http.MethodGet, path, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestProjectGanttItems(t *testing.T) {
	api := newAPI(t)
	ownerToken, _ := api.register("rosa")
	otherToken, _ := api.register("sergio")

	code, body := api.do(http.MethodPost, "/api/v1/projects", ownerToken, map[string]interface{}{
		"name": "Migración", "start_date": "2025-01-01", "end_date": "2025-02-01",
	})
	require.Equal(t, http.StatusCreated, code, body)
	projectID := id(body["projectId"])

	for _, task := range []map[string]interface{}{
		{"title": "Con fecha", "project_id": projectID, "due_date": "2025-01-20", "status": "en_revision"},
		{"title": "Sin fecha", "project_id": projectID, "status": "completada"},
	} {
		code, body = api.do(http.MethodPost, "/api/v1/tasks", ownerToken, task)
		require.Equal(t, http.StatusCreated, code, body)
	}

	gantt := fmt.Sprintf("/api/v1/gantt/project/%d", projectID)
	code, body = api.do(http.MethodGet, gantt, ownerToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	items := body["ganttData"].([]interface{})
	require.Len(t, items, 3)

	project := items[0].(map[string]interface{})
	assert.Equal(t, "project", project["type"])
	assert.Equal(t, float64(50), project["progress"])

	dated := ganttItem(t, items, "Con fecha")
	assert.Equal(t, "task", dated["type"])
	assert.Contains(t, dated["start"], "2025-01-13")
	assert.Contains(t, dated["end"], "2025-01-20")
	assert.Equal(t, float64(75), dated["progress"])

	undated := ganttItem(t, items, "Sin fecha")
	assert.Contains(t, undated["start"], "2025-01-01")
	assert.Contains(t, undated["end"], "2025-02-01")
	assert.Equal(t, float64(100), undated["progress"])

	code, _ = api.do(http.MethodGet, gantt, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodGet, "/api/v1/gantt/projects", ownerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["ganttData"], 1)

	code, body = api.do(http.MethodGet, "/api/v1/gantt/projects", otherToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["ganttData"])
}

func TestWorkloadIsAdminOnly(t *testing.T) {
	api := newAPI(t)
	userToken, _ := api.register("tania")
	_, adminID := api.register("ursula")
	adminToken := api.promote(adminID, "ursula")

	code, body := api.do(http.MethodGet, "/api/v1/reports/workload", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "No tienes permiso para ver este análisis", body["message"])

	code, body = api.do(http.MethodGet, "/api/v1/reports/workload", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["workloadAnalysis"], 2)
}

func TestCommentEditingIsAuthorOnly(t *testing.T) {
	api := newAPI(t)
	authorToken, _ := api.register("victor")
	otherToken, _ := api.register("wendy")
	_, adminID := api.register("ximena")
	adminToken := api.promote(adminID, "ximena")

	_, body := api.do(http.MethodPost, "/api/v1/tasks", authorToken, map[string]interface{}{"title": "Documentar"})
	taskID := id(body["task"].(map[string]interface{})["id"])

	code, body := api.do(http.MethodPost, "/api/v1/comments", authorToken, map[string]interface{}{
		"task_id": taskID, "comment": "Primer borrador",
	})
	require.Equal(t, http.StatusCreated, code, body)
	path := fmt.Sprintf("/api/v1/comments/%d", id(body["comment"].(map[string]interface{})["id"]))

	code, body = api.do(http.MethodPut, path, otherToken, map[string]string{"comment": "Editado por otro"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "No tienes permiso para editar este comentario", body["message"])

	code, body = api.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "No tienes permiso para eliminar este comentario", body["message"])

	code, body = api.do(http.MethodPut, path, authorToken, map[string]string{"comment": "Versión final"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Versión final", body["comment"].(map[string]interface{})["comment"])

	code, _ = api.do(http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/comments/task/%d", taskID), authorToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
}
