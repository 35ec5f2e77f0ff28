package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nikhil/teamtasks/internal/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, "Tarea creada exitosamente", Fields{"task": map[string]int{"id": 1}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Tarea creada exitosamente", body["message"])
	assert.Contains(t, body, "task")

	rec = httptest.NewRecorder()
	Success(rec, http.StatusOK, "", nil)
	assert.NotContains(t, decode(t, rec), "message")
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "Tarea no encontrada")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Tarea no encontrada"}, decode(t, rec))
}

func TestServerError(t *testing.T) {
	t.Cleanup(func() { SetDevelopment(false) })

	t.Run("production hides detail", func(t *testing.T) {
		SetDevelopment(false)
		rec := httptest.NewRecorder()
		ServerError(rec, "Error al obtener tareas", errors.New("connection refused"))

		body := decode(t, rec)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, map[string]interface{}{}, body["error"])
	})

	t.Run("development shows detail", func(t *testing.T) {
		SetDevelopment(true)
		rec := httptest.NewRecorder()
		ServerError(rec, "Error al obtener tareas", errors.New("connection refused"))

		assert.Equal(t, "connection refused", decode(t, rec)["error"])
	})
}

func TestJSONEncodeFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	SetLogger(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})
	t.Cleanup(func() { SetLogger(logger.NewNop()) })

	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, Fields{"broken": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Failed to encode response", entry.Message)
	assert.EqualValues(t, http.StatusOK, entry.ContextMap()["status"])
}
