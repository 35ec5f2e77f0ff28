// Package container builds the shared dependencies every route module draws from.
package container

import (
	"database/sql"

	"github.com/nikhil/teamtasks/internal/auth"
	"github.com/nikhil/teamtasks/internal/config"
	"github.com/nikhil/teamtasks/internal/logger"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/notify"
	"github.com/nikhil/teamtasks/internal/realtime"
	"github.com/nikhil/teamtasks/internal/repository"
)

// Container holds the process-wide collaborators
type Container struct {
	Config *config.Config
	DB     *sql.DB
	Log    *logger.Logger

	Tokens *auth.TokenManager
	Auth   *middleware.Authenticator

	Users         *repository.UserRepository
	Teams         *repository.TeamRepository
	Projects      *repository.ProjectRepository
	Tasks         *repository.TaskRepository
	Boards        *repository.BoardRepository
	Lists         *repository.ListRepository
	Cards         *repository.CardRepository
	Comments      *repository.CommentRepository
	Notifications *repository.NotificationRepository
	Messages      *repository.MessageRepository
	Integrations  *repository.IntegrationRepository

	Hub        *realtime.Hub
	Publisher  *realtime.Publisher
	Sender     *notify.Sender
	Dispatcher *notify.Dispatcher
}

// New wires every repository and service dependency over db.
// The caller starts Hub.Run and waits on Dispatcher before exiting.
func New(cfg *config.Config, db *sql.DB, log *logger.Logger) *Container {
	c := &Container{
		Config:        cfg,
		DB:            db,
		Log:           log,
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Users:         repository.NewUserRepository(db),
		Teams:         repository.NewTeamRepository(db),
		Projects:      repository.NewProjectRepository(db),
		Tasks:         repository.NewTaskRepository(db),
		Boards:        repository.NewBoardRepository(db),
		Lists:         repository.NewListRepository(db),
		Cards:         repository.NewCardRepository(db),
		Comments:      repository.NewCommentRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Messages:      repository.NewMessageRepository(db),
		Integrations:  repository.NewIntegrationRepository(db),
		Sender:        notify.NewSender(cfg.WebhookTimeout),
	}

	c.Auth = middleware.NewAuthenticator(c.Tokens, c.Users, log)
	c.Hub = realtime.NewHub(log)
	c.Publisher = realtime.NewPublisher(c.Notifications, c.Hub, log)
	c.Dispatcher = notify.NewDispatcher(c.Integrations, c.Sender, log, cfg.WebhookTimeout)
	return c
}
