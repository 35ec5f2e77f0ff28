package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/nikhil/teamtasks/internal/auth"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/response"
)

type ContextKey string

const ActorContextKey ContextKey = "currentActor"

const (
	msgNoToken     = "No estás autorizado para acceder a este recurso"
	msgExpired     = "Tu sesión ha expirado, inicia sesión nuevamente"
	msgInvalid     = "Token inválido"
	msgUserGone    = "El usuario ya no existe"
	msgForbidden   = "No tienes permiso para realizar esta acción"
	msgAuthFailure = "Error en la autenticación"
)

// UserLookup loads the account behind a token
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator verifies session tokens and places the Actor in the request context
type Authenticator struct {
	Tokens *auth.TokenManager
	Users  UserLookup
	Log    *logger.Logger
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(tokens *auth.TokenManager, users UserLookup, log *logger.Logger) *Authenticator {
	return &Authenticator{Tokens: tokens, Users: users, Log: log}
}

// AuthMiddleware accepts a Bearer header or, failing that, the token cookie
func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return a.authenticate(next, false)
}

// WebSocketAuthMiddleware also accepts a token query parameter, since browsers cannot set headers on upgrades
func (a *Authenticator) WebSocketAuthMiddleware(next http.Handler) http.Handler {
	return a.authenticate(next, true)
}

func (a *Authenticator) authenticate(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r, allowQuery)
		if tokenStr == "" {
			response.Error(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		claims, err := a.Tokens.Parse(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				response.Error(w, http.StatusUnauthorized, msgExpired)
				return
			}
			response.Error(w, http.StatusUnauthorized, msgInvalid)
			return
		}

		user, err := a.Users.GetByID(r.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(w, http.StatusUnauthorized, msgUserGone)
				return
			}
			a.Log.WithContext(r.Context()).Error("Failed to load user for token", "user_id", claims.ID, "error", err)
			response.ServerError(w, msgAuthFailure, err)
			return
		}

		actor := policy.Actor{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func tokenFromRequest(r *http.Request, allowQuery bool) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

// ActorFrom returns the authenticated actor. ok is false outside authenticated routes.
func ActorFrom(ctx context.Context) (policy.Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(policy.Actor)
	return actor, ok
}

// WithActor returns a copy of ctx carrying actor. Loggers scoped with ctx pick up its id.
func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	ctx = context.WithValue(ctx, logger.UserIDKey, actor.ID)
	return context.WithValue(ctx, ActorContextKey, actor)
}

// RestrictTo lets only actors holding one of roles through
func RestrictTo(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, msgNoToken)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden, msgForbidden)
		})
	}
}

// ResponseWrapperMiddleware marks every response as JSON
func ResponseWrapperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
