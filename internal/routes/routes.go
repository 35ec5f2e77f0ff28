package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/teamtasks/internal/container"
	"github.com/nikhil/teamtasks/internal/middleware"
	"github.com/nikhil/teamtasks/internal/response"
	analyticsRoutes "github.com/nikhil/teamtasks/internal/routes/AnalyticsRoutes"
	authRoute "github.com/nikhil/teamtasks/internal/routes/Auth"
	boardRoutes "github.com/nikhil/teamtasks/internal/routes/BoardRoutes"
	commentRoutes "github.com/nikhil/teamtasks/internal/routes/CommentRoutes"
	integrationRoutes "github.com/nikhil/teamtasks/internal/routes/IntegrationRoutes"
	messageRoutes "github.com/nikhil/teamtasks/internal/routes/MessageRoutes"
	notificationRoutes "github.com/nikhil/teamtasks/internal/routes/NotificationRoutes"
	projectRoutes "github.com/nikhil/teamtasks/internal/routes/ProjectRoutes"
	taskRoutes "github.com/nikhil/teamtasks/internal/routes/TaskRoutes"
	teamroutes "github.com/nikhil/teamtasks/internal/routes/TeamRoutes"
	userRoutes "github.com/nikhil/teamtasks/internal/routes/user"
)

// List of all route registration functions
var routeModules = []func(*mux.Router, *container.Container){
	authRoute.RegisterAuthRoutes,
	userRoutes.UserProfileRoutes,
	teamroutes.TeamRoutes,
	projectRoutes.ProjectRoutes,
	taskRoutes.TaskRoutes,
	boardRoutes.BoardRoutes,
	analyticsRoutes.AnalyticsRoutes,
	commentRoutes.CommentRoutes,
	notificationRoutes.NotificationRoutes,
	messageRoutes.MessageRoutes,
	integrationRoutes.IntegrationRoutes,
}

// RegisterAllRoutes builds the API router over c and wraps it in the
// request-scoped middleware chain
func RegisterAllRoutes(c *container.Container) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(middleware.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(middleware.MethodNotAllowed)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Bienvenido a la API de Gestión de Tareas para Equipos", nil)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.ResponseWrapperMiddleware)
	for _, register := range routeModules {
		register(api, c)
	}

	RegisterWebSocketRoutes(router, c)

	return middleware.Recoverer(c.Log)(
		middleware.RequestLogger(c.Log)(
			middleware.CORS(c.Config.CORSAllowedOrigins)(router),
		),
	)
}
