package handlers

import (
	"errors"
	"net/http"

	"github.com/nikhil/teamtasks/internal/request"
	"github.com/nikhil/teamtasks/internal/response"
	services "github.com/nikhil/teamtasks/internal/service/auth"
)

type AuthHandler struct {
	Service *services.AuthService
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{Service: service}
}

// Signup handles the user registration request
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.Service.Signup(r.Context(), in)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) || errors.Is(err, services.ErrEmailTaken) {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Service.Log.WithContext(r.Context()).Error("Failed to register user", "error", err)
		response.ServerError(w, "Error al registrar usuario", err)
		return
	}

	response.Success(w, http.StatusCreated, "Usuario registrado correctamente", response.Fields{"token": token, "user": user})
}

// Login handles the user authentication request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := request.DecodeJSON(r, &credentials); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.Service.Login(r.Context(), credentials.Email, credentials.Password)
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		h.Service.Log.WithContext(r.Context()).Error("Failed to log in", "error", err)
		response.ServerError(w, "Error al iniciar sesión", err)
	default:
		response.Success(w, http.StatusOK, "Inicio de sesión exitoso", response.Fields{"token": token, "user": user})
	}
}
