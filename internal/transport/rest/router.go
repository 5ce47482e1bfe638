package rest

import (
	"log/slog"

	"github.com/Lap-DevOps/Organizational-Chart/api"
	"github.com/Lap-DevOps/Organizational-Chart/internal/auth"
	"github.com/Lap-DevOps/Organizational-Chart/internal/database"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport/middleware"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport/swagger"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes collects everything RegisterAllRoutes mounts. Nil handlers are skipped.
type Routes struct {
	Inspector       *database.Inspector
	MigrationsTable string
	AuthHandler     *auth.Handler
	RBAC            *auth.RBACAuthorization
	UserHandler     *user.Handler
	Origins         []string
	MetricsEnabled  bool
	MetricsPath     string
	Logger          *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, routes Routes) {
	logger := routes.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Apply global middleware
	router.Use(middleware.CORS(routes.Origins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if routes.MetricsEnabled {
		router.Use(middleware.Metrics)
		path := routes.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.Handler())
	}

	var health *HealthHandler
	if routes.Inspector != nil {
		health = NewHealthHandler(routes.Inspector, routes.MigrationsTable)
		router.Get("/health", health.statusHandler)
	}

	// OpenAPI document and Swagger UI live outside the API prefix
	router.Get(swagger.DocumentURL, api.Handler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if health != nil {
			r.Get("/health", health.healthCheckHandler)
			r.Get("/ping", health.pingHandler)
		}

		if routes.AuthHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", routes.AuthHandler.Login)
				sr.Post("/refresh", routes.AuthHandler.RefreshToken)
				sr.Post("/logout", routes.AuthHandler.Logout)
			})
		}

		if routes.UserHandler == nil {
			return
		}

		if routes.AuthHandler == nil {
			r.Post("/user/", routes.UserHandler.Register)
			return
		}

		// Anonymous registration is allowed; a token is needed to assign Admin or HR
		r.With(routes.AuthHandler.OptionalAuthMiddleware).Post("/user/", routes.UserHandler.Register)

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(routes.AuthHandler.AuthMiddleware)

			pr.Get("/users/me", routes.UserHandler.GetCurrentUser)
			pr.Get("/user/{publicID}", routes.UserHandler.GetUser)

			if routes.RBAC != nil {
				pr.Group(func(dr chi.Router) {
					dr.Use(routes.RBAC.RequireDirectoryReader())
					dr.Get("/user/", routes.UserHandler.ListUsers)
				})
			}
		})
	})
}
