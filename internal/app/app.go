// Package app wires configuration, logging, storage and the backend client
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/backend"
	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/database"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/history"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// App represents the application instance with its dependencies
type App struct {
	Config  *config.Config
	Backend *backend.Client
	History *history.Service
	Logger  *loggy.Logger
}

// New initializes a new application instance with all its dependencies.
// configDir may be empty for ~/.chatmerge.
func New(configDir string) (*App, error) {
	cfg, err := initConfig(configDir)
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"version", os.Getenv("VERSION"),
		"log_level", cfg.Logging.Level,
		"backend", cfg.Backend.URL,
	)

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	logger := loggy.GetGlobalLogger()
	app := &App{
		Config:  cfg,
		Backend: backend.NewClient(cfg.Backend, logger),
		History: history.NewService(history.NewSQLRepository(db, logger), logger),
		Logger:  logger,
	}

	loggy.Info("Application initialized successfully")
	return app, nil
}

// initConfig loads and sets up the application configuration
func initConfig(configDir string) (*config.Config, error) {
	cfg, err := config.LoadFromEnv(configDir, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// NewWizard starts a merge session of slave into master
func (app *App) NewWizard(ctx context.Context, master, slave dataset.Ref) *wizard.Wizard {
	return wizard.New(ctx, app.Backend, app.Config.Merge, master, slave, app.Logger)
}

// RecordSession stores a finished session. Failures are logged, never returned.
func (app *App) RecordSession(ctx context.Context, s *history.Session) {
	if err := app.History.Record(ctx, s); err != nil {
		app.Logger.Warn("Merge session not recorded", "session_id", s.ID.String(), "error", err)
	}
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")

	if err := database.CloseDB(); err != nil {
		loggy.Error("Error closing database connection", "error", err)
	}

	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
