package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/nikhil/teamtasks/internal/auth"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/models"
	"github.com/nikhil/teamtasks/internal/repository"
	"github.com/nikhil/teamtasks/pkg/utils"
)

var (
	ErrMissingFields      = errors.New("Todos los campos son obligatorios")
	ErrMissingCredentials = errors.New("El correo electrónico y la contraseña son obligatorios")
	ErrEmailTaken         = errors.New("El correo electrónico ya está registrado")
	ErrInvalidCredentials = errors.New("Credenciales inválidas")
)

// RegisterInput is the self-service signup payload
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// AuthService registers accounts and issues session tokens
type AuthService struct {
	Users  *repository.UserRepository
	Tokens *auth.TokenManager
	Log    *logger.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(users *repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		Users:  users,
		Tokens: tokens,
		Log:    logger.NewLogger("auth-service"),
	}
}

// Signup creates a regular user account and returns its first token
func (s *AuthService) Signup(ctx context.Context, in RegisterInput) (string, *models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "" {
		return "", nil, ErrMissingFields
	}

	exists, err := s.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, ErrEmailTaken
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashedPassword,
		FullName: in.FullName,
		Role:     models.RoleUser,
	}
	if _, err := s.Users.Create(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.Tokens.Generate(user)
	if err != nil {
		return "", nil, err
	}
	s.Log.WithContext(ctx).Audit("User registered", "user_id", user.ID)
	return token, user, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrMissingCredentials
	}

	user, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := utils.CheckPassword(user.Password, password); err != nil {
		s.Log.WithContext(ctx).Audit("Login rejected", "user_id", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Generate(user)
	if err != nil {
		return "", nil, err
	}
	s.Log.WithContext(ctx).Audit("User logged in", "user_id", user.ID)
	return token, user, nil
}
