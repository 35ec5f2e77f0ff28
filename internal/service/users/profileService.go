package profileService

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/policy"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	"github.com/nikhil/teamtasks/pkg/utils"
)

const msgUserNotFound = "Usuario no encontrado"

// ProfileService serves the self-service profile and the admin user directory
type ProfileService struct {
	Users *repository.UserRepository
	Teams *repository.TeamRepository
	Log   *logger.Logger
}

type profileRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func NewProfileService(c *container.Container) *ProfileService {
	return &ProfileService{
		Users: c.Users,
		Teams: c.Teams,
		Log:   logger.NewLogger("user-service"),
	}
}

func (ps *ProfileService) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	user, err := ps.Users.GetByID(r.Context(), actor.ID)
	if err != nil {
		ps.userError(w, r, err, "Error al obtener perfil")
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"user": user})
}

func (ps *ProfileService) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req profileRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := ps.Users.GetByID(ctx, actor.ID)
	if err != nil {
		ps.userError(w, r, err, "Error al actualizar perfil")
		return
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}

	if _, err := ps.Users.UpdateProfile(ctx, user.ID, user.Username, user.FullName); err != nil {
		ps.Log.WithContext(ctx).Error("Failed to update profile", "user_id", user.ID, "error", err)
		response.ServerError(w, "Error al actualizar perfil", err)
		return
	}
	if req.Password != "" {
		if err := ps.storePassword(r, user.ID, req.Password); err != nil {
			response.ServerError(w, "Error al actualizar perfil", err)
			return
		}
	}

	response.Success(w, http.StatusOK, "Perfil actualizado correctamente", response.Fields{"user": user})
}

func (ps *ProfileService) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		response.Error(w, http.StatusBadRequest, "La contraseña actual y la nueva contraseña son obligatorias")
		return
	}

	user, err := ps.Users.GetByID(ctx, actor.ID)
	if err != nil {
		ps.userError(w, r, err, "Error al cambiar contraseña")
		return
	}
	if err := utils.CheckPassword(user.Password, req.CurrentPassword); err != nil {
		response.Error(w, http.StatusUnauthorized, "La contraseña actual es incorrecta")
		return
	}
	if err := ps.storePassword(r, user.ID, req.NewPassword); err != nil {
		response.ServerError(w, "Error al cambiar contraseña", err)
		return
	}

	ps.Log.WithContext(ctx).Audit("Password changed", "user_id", user.ID)
	response.Success(w, http.StatusOK, "Contraseña actualizada correctamente", nil)
}

func (ps *ProfileService) SearchUsers(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		term = strings.TrimSpace(r.URL.Query().Get("query"))
	}
	if term == "" {
		response.Error(w, http.StatusBadRequest, "Se requiere un término de búsqueda")
		return
	}

	users, err := ps.Users.Search(r.Context(), term)
	if err != nil {
		ps.Log.WithContext(r.Context()).Error("Failed to search users", "error", err)
		response.ServerError(w, "Error al buscar usuarios", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(users), "users": users})
}

func (ps *ProfileService) GetUserTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	userID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusBadRequest, "ID de usuario inválido")
		return
	}
	if !policy.CanPerform(actor, policy.ActionReadTeam, policy.Resource{Kind: policy.KindUser, OwnerID: userID}) {
		response.Error(w, http.StatusForbidden, "No tienes permiso para ver esta información")
		return
	}

	team, err := ps.Teams.FirstTeamOfUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "El usuario no pertenece a ningún equipo")
			return
		}
		ps.Log.WithContext(ctx).Error("Failed to load team of user", "user_id", userID, "error", err)
		response.ServerError(w, "Error al obtener equipo del usuario", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"team": team})
}

func (ps *ProfileService) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := ps.Users.List(r.Context())
	if err != nil {
		ps.Log.WithContext(r.Context()).Error("Failed to list users", "error", err)
		response.ServerError(w, "Error al obtener usuarios", err)
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"count": len(users), "users": users})
}

func (ps *ProfileService) GetUserByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	user, err := ps.Users.GetByID(r.Context(), userID)
	if err != nil {
		ps.userError(w, r, err, "Error al obtener usuario")
		return
	}
	response.Success(w, http.StatusOK, "", response.Fields{"user": user})
}

func (ps *ProfileService) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	var req userRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role != "" && !models.IsValidRole(req.Role) {
		response.Error(w, http.StatusBadRequest, "Rol no válido")
		return
	}

	user, err := ps.Users.GetByID(ctx, userID)
	if err != nil {
		ps.userError(w, r, err, "Error al actualizar usuario")
		return
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	roleChanged := req.Role != "" && req.Role != user.Role
	if req.Role != "" {
		user.Role = req.Role
	}

	if _, err := ps.Users.Update(ctx, user); err != nil {
		ps.Log.WithContext(ctx).Error("Failed to update user", "user_id", userID, "error", err)
		response.ServerError(w, "Error al actualizar usuario", err)
		return
	}
	if req.Password != "" {
		if err := ps.storePassword(r, user.ID, req.Password); err != nil {
			response.ServerError(w, "Error al actualizar usuario", err)
			return
		}
	}
	if roleChanged {
		actor, _ := middleware.ActorFrom(ctx)
		ps.Log.WithContext(ctx).Audit("User role changed", "user_id", userID, "role", user.Role, "by", actor.ID)
	}

	response.Success(w, http.StatusOK, "Usuario actualizado correctamente", response.Fields{"user": user})
}

func (ps *ProfileService) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsValidRole(req.Role) {
		response.Error(w, http.StatusBadRequest, "Rol no válido")
		return
	}

	updated, err := ps.Users.UpdateRole(ctx, userID, req.Role)
	if err != nil {
		ps.Log.WithContext(ctx).Error("Failed to change role", "user_id", userID, "error", err)
		response.ServerError(w, "Error al cambiar rol de usuario", err)
		return
	}
	if !updated {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	actor, _ := middleware.ActorFrom(ctx)
	ps.Log.WithContext(ctx).Audit("User role changed", "user_id", userID, "role", req.Role, "by", actor.ID)
	response.Success(w, http.StatusOK, fmt.Sprintf("Rol de usuario actualizado a %s correctamente", req.Role), nil)
}

func (ps *ProfileService) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	userID, ok := request.PathID(r, "id")
	if !ok {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	if userID == actor.ID {
		response.Error(w, http.StatusBadRequest, "No puedes eliminar tu propia cuenta")
		return
	}

	deleted, err := ps.Users.Delete(ctx, userID)
	if err != nil {
		ps.Log.WithContext(ctx).Error("Failed to delete user", "user_id", userID, "error", err)
		response.ServerError(w, "Error al eliminar usuario", err)
		return
	}
	if !deleted {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	ps.Log.WithContext(ctx).Audit("User deleted", "user_id", userID, "by", actor.ID)
	response.Success(w, http.StatusOK, "Usuario eliminado correctamente", nil)
}

func (ps *ProfileService) storePassword(r *http.Request, userID int64, password string) error {
	hash, err := utils.HashPassword(password)
	if err == nil {
		_, err = ps.Users.UpdatePassword(r.Context(), userID, hash)
	}
	if err != nil {
		ps.Log.WithContext(r.Context()).Error("Failed to store password", "user_id", userID, "error", err)
	}
	return err
}

func (ps *ProfileService) userError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, sql.ErrNoRows) {
		response.Error(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	ps.Log.WithContext(r.Context()).Error("Failed to load user", "error", err)
	response.ServerError(w, msg, err)
}
