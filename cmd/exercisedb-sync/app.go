package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/amaumene/exercisedb-sync/internal/cache"
	"github.com/amaumene/exercisedb-sync/internal/config"
	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/services/exercisedb"
	"github.com/amaumene/exercisedb-sync/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const redisKeyPrefix = "exercisedb-sync:"

// app holds the dependencies shared by every command
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *models.Database
	cursor cache.Store
	tp     *sdktrace.TracerProvider
}

// newApp loads the configuration and opens the database and cursor store.
// Logs go to the command's stderr so stdout only carries reports.
func newApp(cmd *cobra.Command, v *viper.Viper) (*app, error) {
	// 1. Load configuration
	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger and tracing
	logger := utils.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")

	tp := utils.NewTracerProvider(logger)
	otel.SetTracerProvider(tp)

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Debug("Database initialized")

	// 4. Open the cursor store
	cursor := openCursorStore(cfg, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		cursor: cursor,
		tp:     tp,
	}, nil
}

// openCursorStore prefers Redis, then the cursor file. A store that cannot be opened
// never blocks a command: the next one is tried, down to a store held in memory.
func openCursorStore(cfg *config.Config, logger *logrus.Logger) cache.Store {
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(cfg.RedisURL, redisKeyPrefix)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to connect to Redis, using the cursor file")
	}

	store, err := cache.OpenFileStore(cfg.CursorFile)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.CursorFile).Warn("Failed to open cursor file, resume is unavailable for this run")
		return cache.NewMemoryStore()
	}
	if discarded, ok := store.Discarded(); ok {
		logger.WithField("moved_to", discarded).Warn("Cursor file was unreadable, starting without a cursor")
	}
	return store
}

// importController wires the fetcher, upserter and walker. Statistics are written to out.
func (a *app) importController(out io.Writer) (*controllers.ImportController, error) {
	client, err := exercisedb.NewClient(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ExerciseDB client: %w", err)
	}

	fetcher := exercisedb.NewFetcher(client, exercisedb.NewRetryPolicy(a.cfg.RetryDelay), a.logger,
		exercisedb.WithTracerProvider(a.tp))
	upserter := controllers.NewRecordUpserter(a.db, a.logger)
	walker := controllers.NewCategoryWalker(fetcher, upserter, a.cursor, a.logger)
	statsCtrl := controllers.NewStatsController(a.db, a.logger)

	return controllers.NewImportController(walker, statsCtrl, out, a.logger), nil
}

// Close releases everything newApp opened
func (a *app) Close() {
	if err := a.cursor.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close cursor store")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
	if err := a.tp.Shutdown(context.Background()); err != nil {
		a.logger.WithError(err).Warn("Failed to shut down tracer provider")
	}
}
