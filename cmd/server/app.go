package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/workforce-api/internal/config"
	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/events"
	"github.com/phrazzld/workforce-api/internal/platform/memory"
	"github.com/phrazzld/workforce-api/internal/platform/postgres"
	"github.com/phrazzld/workforce-api/internal/presenter"
	"github.com/phrazzld/workforce-api/internal/service"
	"github.com/phrazzld/workforce-api/internal/service/auth"
	"github.com/phrazzld/workforce-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the in-memory store is configured.
	db        *sql.DB
	taskStore store.TaskStore

	registry     *domain.Registry
	eventEmitter *events.InMemoryEventEmitter
	taskService  service.TaskService
	formatter    *presenter.Formatter

	// jwtService is nil when authentication is disabled.
	jwtService auth.JWTService
}

// newApplication creates a new application instance with all dependencies
// initialized from cfg.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.registry, err = loadRegistry(cfg.Tasks)
	if err != nil {
		return nil, err
	}
	logger.Info("task type registry loaded",
		slog.Int("reference_types", len(app.registry.ReferenceTypes())),
		slog.String("source", registrySource(cfg.Tasks)))

	if err := app.setupStore(ctx); err != nil {
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditHandler(logger))

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.registry,
		app.eventEmitter,
		logger,
		service.WithAssignmentHorizon(cfg.Tasks.AssignmentHorizon),
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.formatter, err = presenter.NewFormatter(cfg.Presentation.Timezone)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	if cfg.Auth.AuthEnabled() {
		app.jwtService, err = auth.NewJWTService(cfg.Auth, logger)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		logger.Info("bearer token authentication enabled",
			slog.Duration("token_lifetime", cfg.Auth.TokenLifetime))
	} else {
		logger.Warn("authentication disabled: auth.jwt_secret is not set")
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupStore selects the task store backend named by storage.driver.
func (app *application) setupStore(ctx context.Context) error {
	switch app.config.Storage.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, app.config.Storage.DatabaseURL)
		if err != nil {
			return err
		}
		app.db = db
		app.taskStore = postgres.NewPostgresTaskStore(db, app.logger)
		app.logger.Info("database connection established",
			slog.String("database_url", postgres.MaskDatabaseURL(app.config.Storage.DatabaseURL)))
	default:
		app.taskStore = memory.NewTaskStore(app.logger)
		app.logger.Info("using in-memory task store")
	}
	return nil
}

func loadRegistry(cfg config.TasksConfig) (*domain.Registry, error) {
	if cfg.RegistryFile == "" {
		return domain.DefaultRegistry(), nil
	}
	registry, err := domain.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load task type registry: %w", err)
	}
	return registry, nil
}

func registrySource(cfg config.TasksConfig) string {
	if cfg.RegistryFile == "" {
		return "embedded"
	}
	return cfg.RegistryFile
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		} else {
			app.logger.Info("database connection closed")
		}
		app.db = nil
	}
}
