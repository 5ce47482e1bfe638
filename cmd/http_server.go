package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/auth"
	"github.com/Lap-DevOps/Organizational-Chart/internal/core/events"
	"github.com/Lap-DevOps/Organizational-Chart/internal/credential"
	"github.com/Lap-DevOps/Organizational-Chart/internal/database"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport/rest"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	userPostgres "github.com/Lap-DevOps/Organizational-Chart/internal/user/postgres"
	"github.com/Lap-DevOps/Organizational-Chart/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *gorm.DB
	Inspector   *database.Inspector
	Router      *chi.Mux
	EventBus    *events.EventBus
	UserService *user.Service
	AuthService *auth.Service
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(deps.Config))
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Wait(ctx); err != nil {
			deps.Logger.Warn("Event handlers still running at shutdown", "error", err)
		}
		if err := database.Close(deps.DB); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func shutdownTimeout(cfg *internal.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}

func setupRoutes(deps *Dependencies) {
	base := transport.NewBaseHandler(deps.Logger)

	rest.RegisterAllRoutes(deps.Router, rest.Routes{
		Inspector:       deps.Inspector,
		MigrationsTable: deps.Config.Database.MigrationsTable,
		AuthHandler:     auth.NewHandler(base, deps.AuthService),
		RBAC:            auth.NewRBACAuthorization(base),
		UserHandler:     user.NewHandler(base, deps.UserService),
		Origins:         deps.Config.Server.Origins(),
		MetricsEnabled:  deps.Config.Observability.Metrics.Enabled,
		MetricsPath:     deps.Config.Observability.Metrics.Path,
		Logger:          deps.Logger,
	})
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := newLogger(config)

	db, err := database.Open(ctx, config.Database, config.Debug, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	inspector, err := database.InspectorFromGorm(db, "pgx")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema inspector: %w", err)
	}

	userService, err := newUserService(config, db, lg)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewJWTTokenGenerator(
		config.Security.JWTAccessSecret,
		config.Security.JWTRefreshSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	return &Dependencies{
		Config:      config,
		DB:          db,
		Inspector:   inspector,
		Router:      chi.NewRouter(),
		EventBus:    userService.bus,
		UserService: userService.Service,
		AuthService: auth.NewService(userService.Service, tokens, lg),
		Logger:      lg,
	}, nil
}

type wiredUserService struct {
	*user.Service
	bus *events.EventBus
}

// newUserService builds the registration service with its hasher, repository
// and an event bus carrying the audit log subscriptions.
func newUserService(config *internal.Config, db *gorm.DB, lg *slog.Logger) (*wiredUserService, error) {
	hasher, err := credential.NewBcryptHasher(config.Security.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential hasher: %w", err)
	}

	bus := events.NewEventBus(lg)
	audit := events.AuditLogHandler(lg)
	bus.Subscribe(events.UserRegisteredEvent, audit)
	bus.Subscribe(events.UserLoggedInEvent, audit)

	svc := user.NewService(userPostgres.NewUserRepository(db), hasher, bus, lg)
	return &wiredUserService{Service: svc, bus: bus}, nil
}

func newLogger(config *internal.Config) *slog.Logger {
	return logger.Init(logger.Options{
		Env:    config.Environment,
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
	})
}
