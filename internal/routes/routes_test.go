package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/config"
	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/routes"
	"github.com/nikhil/teamtasks/internal/testutil"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
	c       *container.Container
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	cfg := &config.Config{
		AppEnv:             "test",
		JWTSecret:          "routes-test-secret",
		JWTExpiresIn:       time.Hour,
		CORSAllowedOrigins: []string{"*"},
		WebhookTimeout:     time.Second,
	}
	c := container.New(cfg, testutil.NewDB(t), logger.NewNop())
	t.Cleanup(c.Dispatcher.Wait)
	return &apiClient{t: t, handler: routes.RegisterAllRoutes(c), c: c}
}

func (a *apiClient) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

// register signs up a fresh user and returns its token and id
func (a *apiClient) register(name string) (string, int64) {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username":  name,
		"email":     name + "@example.com",
		"password":  "secreto123",
		"full_name": "Usuario " + name,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), int64(user["id"].(float64))
}

func (a *apiClient) promote(userID int64, name string) string {
	a.t.Helper()
	_, err := a.c.DB.Exec(`UPDATE users SET role = 'admin' WHERE id = ?`, userID)
	require.NoError(a.t, err)
	code, body := a.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": name + "@example.com", "password": "secreto123",
	})
	require.Equal(a.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func id(v interface{}) int64 {
	return int64(v.(float64))
}

func TestWelcomeAndFallbacks(t *testing.T) {
	api := newAPI(t)

	code, body := api.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Bienvenido a la API de Gestión de Tareas para Equipos", body["message"])

	code, body = api.do(http.MethodGet, "/api/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
}

func TestRegisterAndLogin(t *testing.T) {
	api := newAPI(t)
	api.register("ana")

	t.Run("duplicate email", func(t *testing.T) {
		code, body := api.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
			"username": "ana2", "email": "ana@example.com", "password": "x", "full_name": "Ana",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "El correo electrónico ya está registrado", body["message"])
	})

	t.Run("wrong password", func(t *testing.T) {
		code, body := api.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{
			"email": "ana@example.com", "password": "incorrecta",
		})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Credenciales inválidas", body["message"])
	})

	t.Run("login returns a usable token", func(t *testing.T) {
		code, body := api.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{
			"email": "ana@example.com", "password": "secreto123",
		})
		require.Equal(t, http.StatusOK, code)
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "user", user["role"])
		assert.NotContains(t, user, "password")

		code, _ = api.do(http.MethodGet, "/api/v1/users/profile", body["token"].(string), nil)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newAPI(t)
	for _, path := range []string{
		"/api/v1/users/profile",
		"/api/v1/tasks",
		"/api/v1/teams",
		"/api/v1/boards",
		"/api/v1/kanban",
		"/api/v1/notifications",
		"/api/v1/messages/unread",
	} {
		code, body := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, false, body["success"], path)
	}

	code, _ := api.do(http.MethodGet, "/api/v1/tasks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUserDirectoryIsAdminOnly(t *testing.T) {
	api := newAPI(t)
	token, _ := api.register("bea")
	_, adminID := api.register("root")
	adminToken := api.promote(adminID, "root")

	code, _ := api.do(http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := api.do(http.MethodGet, "/api/v1/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, code, body)
}

func TestTaskDefaultsAndKanbanMove(t *testing.T) {
	api := newAPI(t)
	token, userID := api.register("carlos")

	code, body := api.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{"title": "Preparar demo"})
	require.Equal(t, http.StatusCreated, code, body)
	task := body["task"].(map[string]interface{})
	assert.Equal(t, "pendiente", task["status"])
	assert.Equal(t, "media", task["priority"])
	assert.Equal(t, float64(userID), task["created_by"])
	taskID := id(task["id"])

	code, body = api.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "El título es obligatorio", body["message"])

	move := fmt.Sprintf("/api/v1/kanban/task/%d/move", taskID)
	code, body = api.do(http.MethodPatch, move, token, map[string]string{"newStatus": "volando"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Estado no válido", body["message"])

	code, body = api.do(http.MethodPatch, move, token, map[string]string{"newStatus": "en_progreso"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "en_progreso", body["task"].(map[string]interface{})["status"])

	otherToken, _ := api.register("dora")
	code, _ = api.do(http.MethodPatch, move, otherToken, map[string]string{"newStatus": "completada"})
	assert.Equal(t, http.StatusForbidden, code)

	// the admin board sees every task bucketed by status
	_, adminID := api.register("admin")
	adminToken := api.promote(adminID, "admin")
	code, body = api.do(http.MethodGet, "/api/v1/kanban", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	columns := body["kanbanBoard"].(map[string]interface{})
	assert.Len(t, columns["en_progreso"], 1)
	assert.Empty(t, columns["pendiente"])
}

func TestLastLeaderCannotLeave(t *testing.T) {
	api := newAPI(t)
	token, userID := api.register("elena")
	_, memberID := api.register("fede")

	code, body := api.do(http.MethodPost, "/api/v1/teams", token, map[string]string{"name": "Plataforma"})
	require.Equal(t, http.StatusCreated, code, body)
	teamID := id(body["teamId"])

	members := fmt.Sprintf("/api/v1/teams/%d/members", teamID)
	code, body = api.do(http.MethodPost, members, token, map[string]interface{}{"userId": memberID})
	require.Equal(t, http.StatusOK, code, body)

	code, body = api.do(http.MethodDelete, fmt.Sprintf("%s/%d", members, userID), token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No se puede eliminar al último líder del equipo", body["message"])

	code, body = api.do(http.MethodPatch, fmt.Sprintf("%s/%d", members, userID), token, map[string]string{"role": "member"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No se puede degradar al último líder del equipo", body["message"])

	code, body = api.do(http.MethodGet, members, token, nil)
	require.Equal(t, http.StatusOK, code, body)
}

func TestCardOrderingAcrossMoves(t *testing.T) {
	api := newAPI(t)
	token, _ := api.register("gabi")

	code, body := api.do(http.MethodPost, "/api/v1/boards", token, map[string]string{"title": "Sprint"})
	require.Equal(t, http.StatusCreated, code, body)
	boardID := id(body["board"].(map[string]interface{})["id"])
	base := fmt.Sprintf("/api/v1/boards/%d", boardID)

	code, body = api.do(http.MethodPost, base+"/lists", token, map[string]string{"title": "Por hacer"})
	require.Equal(t, http.StatusCreated, code, body)
	listID := id(body["list"].(map[string]interface{})["id"])

	var cardIDs []int64
	for _, title := range []string{"uno", "dos", "tres"} {
		code, body = api.do(http.MethodPost, fmt.Sprintf("%s/lists/%d/cards", base, listID), token, map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, code, body)
		cardIDs = append(cardIDs, id(body["card"].(map[string]interface{})["id"]))
	}

	code, body = api.do(http.MethodPut, fmt.Sprintf("%s/cards/%d/position", base, cardIDs[2]), token,
		map[string]interface{}{"listId": listID, "position": 1})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = api.do(http.MethodPut, fmt.Sprintf("%s/cards/%d/position", base, cardIDs[0]), token,
		map[string]interface{}{"listId": listID, "position": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.do(http.MethodGet, fmt.Sprintf("%s/lists/%d/cards", base, listID), token, nil)
	require.Equal(t, http.StatusOK, code, body)
	cards := body["cards"].([]interface{})
	require.Len(t, cards, 3)
	var order []string
	for i, c := range cards {
		card := c.(map[string]interface{})
		order = append(order, card["title"].(string))
		assert.Equal(t, float64(i+1), card["position"])
	}
	assert.Equal(t, []string{"tres", "uno", "dos"}, order)

	strangerToken, _ := api.register("hugo")
	code, _ = api.do(http.MethodGet, base, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSlackConfigurationSurvivesFailedAnnouncement(t *testing.T) {
	api := newAPI(t)
	token, _ := api.register("ines")

	_, body := api.do(http.MethodPost, "/api/v1/teams", token, map[string]string{"name": "Soporte"})
	teamID := id(body["teamId"])

	code, _ := api.do(http.MethodPost, fmt.Sprintf("/api/v1/integrations/slack/team/%d", teamID), token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.do(http.MethodPost, fmt.Sprintf("/api/v1/integrations/slack/team/%d", teamID), token,
		map[string]string{"webhookUrl": "http://127.0.0.1:1/unreachable", "channelName": "alertas"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/integrations/team/%d", teamID), token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["count"])

	outsiderToken, _ := api.register("juan")
	code, _ = api.do(http.MethodPost, fmt.Sprintf("/api/v1/integrations/slack/team/%d", teamID), outsiderToken,
		map[string]string{"webhookUrl": "http://127.0.0.1:1/x"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMessagesAreVisibleToRecipientOnly(t *testing.T) {
	api := newAPI(t)
	senderToken, _ := api.register("karla")
	recipientToken, recipientID := api.register("luis")

	code, body := api.do(http.MethodPost, "/api/v1/messages", senderToken, map[string]interface{}{
		"recipient_id": recipientID, "title": "Hola", "message": "¿Revisas el PR?",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, _ = api.do(http.MethodPost, "/api/v1/messages", senderToken, map[string]interface{}{
		"recipient_id": 9999, "title": "Hola", "message": "nadie",
	})
	assert.Equal(t, http.StatusNotFound, code)

	inbox := fmt.Sprintf("/api/v1/messages/recipient/%d", recipientID)
	code, _ = api.do(http.MethodGet, inbox, senderToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodGet, inbox, recipientToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, body = api.do(http.MethodGet, "/api/v1/messages/unread", recipientToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func TestCommentNotifiesTaskCreator(t *testing.T) {
	api := newAPI(t)
	creatorToken, _ := api.register("mario")
	_, body := api.do(http.MethodPost, "/api/v1/tasks", creatorToken, map[string]interface{}{"title": "Revisar"})
	taskID := id(body["task"].(map[string]interface{})["id"])

	// an admin may comment on any task
	_, adminID := api.register("nora")
	adminToken := api.promote(adminID, "nora")
	code, body := api.do(http.MethodPost, "/api/v1/comments", adminToken, map[string]interface{}{
		"task_id": taskID, "comment": "Listo para revisar",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = api.do(http.MethodGet, "/api/v1/notifications/unread", creatorToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = api.do(http.MethodPatch, "/api/v1/notifications/read-all", creatorToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	_, body = api.do(http.MethodGet, "/api/v1/notifications/unread", creatorToken, nil)
	assert.Equal(t, float64(0), body["count"])
}
