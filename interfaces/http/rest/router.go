package rest

import (
	"net/http"

	"dashworker/interfaces/http/rest/handlers"
	"dashworker/interfaces/http/rest/middleware"
	"dashworker/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	projects   *handlers.ProjectsHandler
	dashboard  *handlers.DashboardHandler
	health     *handlers.HealthHandler
	validator  *auth.Validator
	limiter    *auth.RateLimiter
	corsOrigin string
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	projects *handlers.ProjectsHandler,
	dashboard *handlers.DashboardHandler,
	health *handlers.HealthHandler,
	validator *auth.Validator,
	limiter *auth.RateLimiter,
	corsOrigin string,
	logger *zap.Logger,
) *Router {
	return &Router{
		projects:   projects,
		dashboard:  dashboard,
		health:     health,
		validator:  validator,
		limiter:    limiter,
		corsOrigin: corsOrigin,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{rt.corsOrigin},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Cache"},
		MaxAge:         300,
	}))

	// Health check
	router.Get("/health", rt.health.Check)

	// Authenticated API routes
	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.limiter, rt.logger))

		r.Get("/projects", rt.projects.List)
		r.Get("/dashboard", rt.dashboard.Get)
	})

	return router
}
