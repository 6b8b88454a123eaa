package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/wrenhollow/recall-api/internal/config"
	"github.com/wrenhollow/recall-api/internal/domain/amr"
	"github.com/wrenhollow/recall-api/internal/platform/metrics"
	"github.com/wrenhollow/recall-api/internal/platform/postgres"
	"github.com/wrenhollow/recall-api/internal/service"
	"github.com/wrenhollow/recall-api/internal/service/auth"
	"github.com/wrenhollow/recall-api/internal/store"
)

// application holds the shared application dependencies so that wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	itemStore store.ItemStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	amrService       amr.Service
	studyService     service.StudyService

	metrics *metrics.Metrics
}

// newApplication creates an application instance with all dependencies
// initialized. Configuration, logging, and the database connection must
// already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewUserStore(db, cfg.Auth.BcryptCost, logger)
	app.itemStore = postgres.NewItemStore(db, logger)

	app.amrService = amr.NewServiceWithParams(amr.NewParams(amr.ParamsConfig{
		RetentionTarget: cfg.Scheduler.RetentionTarget,
		MinIntervalDays: cfg.Scheduler.MinIntervalDays,
	}))

	itemRepo := service.NewItemRepositoryAdapter(app.itemStore, db)
	app.studyService = service.NewStudyService(itemRepo, app.amrService, logger)

	app.metrics = metrics.NewMetrics()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup releases application resources during shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
