package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/auth"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/models"
)

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if id == 500 {
		return nil, errors.New("db down")
	}
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	users := stubUsers{1: {ID: 1, Username: "ana", Email: "ana@example.com", Role: models.RoleAdmin}}
	a := NewAuthenticator(tokens, users, logger.NewNop())

	var seen bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		userID, _ := r.Context().Value(logger.UserIDKey).(int64)
		seen = ok && actor.ID == 1 && actor.IsAdmin() && userID == 1
		w.WriteHeader(http.StatusOK)
	})
	protected := a.AuthMiddleware(inner)

	valid, err := tokens.Generate(users[1])
	require.NoError(t, err)
	expired, err := auth.NewTokenManager("secret", -time.Minute).Generate(users[1])
	require.NoError(t, err)
	ghost, err := tokens.Generate(&models.User{ID: 99})
	require.NoError(t, err)
	broken, err := tokens.Generate(&models.User{ID: 500})
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		code    int
		message string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, msgNoToken},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, http.StatusUnauthorized, msgExpired},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, msgInvalid},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghost) }, http.StatusUnauthorized, msgUserGone},
		{"lookup failure", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+broken) }, http.StatusInternalServerError, msgAuthFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, messageOf(t, rec))
		})
	}

	t.Run("bearer header", func(t *testing.T) {
		seen = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, seen)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		seen = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: valid})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, seen)
	})

	t.Run("query token only for websocket", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token="+valid, nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		seen = false
		rec = httptest.NewRecorder()
		a.WebSocketAuthMiddleware(inner).ServeHTTP(rec, req)
		assert.True(t, seen)
	})
}

func TestRestrictTo(t *testing.T) {
	handler := RestrictTo(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing actor", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), actorWithRole(models.RoleManager)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, msgForbidden, messageOf(t, rec))
	})

	t.Run("allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), actorWithRole(models.RoleAdmin)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
