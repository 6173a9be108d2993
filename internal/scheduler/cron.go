package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Importer runs one import
type Importer interface {
	Run(ctx context.Context, opts controllers.ImportOptions) (*controllers.ImportSummary, error)
}

// Scheduler runs imports on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	importer Importer
	schedule string
	opts     controllers.ImportOptions
	cancel   context.CancelFunc
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler. A run that is still going when the next one is
// due makes the next one skip.
func NewScheduler(importer Importer, schedule string, opts controllers.ImportOptions, logger *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		importer: importer,
		schedule: schedule,
		opts:     opts,
		logger:   logger,
	}
}

// Start starts the scheduler. Imports run with ctx and are cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	ctx, s.cancel = context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runImport(ctx)
	}); err != nil {
		s.cancel()
		return fmt.Errorf("failed to add import job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running import to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
}

// runImport executes the import job
func (s *Scheduler) runImport(ctx context.Context) {
	s.logger.Info("Running scheduled import")

	summary, err := s.importer.Run(ctx, s.opts)
	switch {
	case errors.Is(err, controllers.ErrImportRunning):
		s.logger.Info("Import already running, skipping scheduled run")
	case err != nil:
		s.logger.WithError(err).Error("Import job failed")
	default:
		s.logger.WithField("imported", summary.Imported).Info("Import job completed successfully")
	}
}
