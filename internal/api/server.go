package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/exercisedb-sync/internal/api/handlers"
	"github.com/amaumene/exercisedb-sync/internal/api/middleware"
	"github.com/amaumene/exercisedb-sync/internal/cache"
	"github.com/amaumene/exercisedb-sync/internal/config"
	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	app       *fiber.App
	addr      string
	db        *models.Database
	statsCtrl *controllers.StatsController
	cursor    cache.Store
	logger    *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *models.Database, statsCtrl *controllers.StatsController, cursor cache.Store, logger *logrus.Logger) *Server {
	s := &Server{
		addr:      ":" + cfg.ServerPort,
		db:        db,
		statsCtrl: statsCtrl,
		cursor:    cursor,
		logger:    logger,
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(middleware.Logging(logger))
	s.setupRoutes()

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.logger)
	s.app.Get("/health", healthHandler.Handle)

	statusHandler := handlers.NewStatusHandler(s.statsCtrl, s.cursor, s.logger)
	s.app.Get("/status", statusHandler.Handle)

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	exercisesHandler := handlers.NewExercisesHandler(s.db, s.logger)
	api := s.app.Group("/api")
	api.Get("/exercises", exercisesHandler.List)
	api.Get("/exercises/:externalID", exercisesHandler.Get)
}

// errorHandler renders errors as JSON
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// Start starts the HTTP server and blocks until ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
