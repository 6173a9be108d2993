package controllers

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/utils"
	"github.com/sirupsen/logrus"
)

// ErrImportRunning is returned when an import is requested while another one is in progress
var ErrImportRunning = errors.New("an import is already running")

// ImportOptions controls a single import run
type ImportOptions struct {
	Resume     bool
	Limit      int      // Records after which the walk stops between categories, <= 0 for no limit
	Categories []string // Subset of the known categories, all of them when empty
}

// ImportSummary reports the outcome of an import run
type ImportSummary struct {
	WalkResult
	Categories []string
	Duration   time.Duration
	Stats      *Stats // Nil when statistics could not be computed
}

// ImportController runs imports and reports statistics once they complete
type ImportController struct {
	mu         sync.Mutex
	walker     *CategoryWalker
	statsCtrl  *StatsController
	categories []string
	out        io.Writer
	logger     *logrus.Logger
}

// NewImportController creates a new import controller. Statistics are written to out.
func NewImportController(walker *CategoryWalker, statsCtrl *StatsController, out io.Writer, logger *logrus.Logger) *ImportController {
	return &ImportController{
		walker:     walker,
		statsCtrl:  statsCtrl,
		categories: models.MuscleCategories,
		out:        out,
		logger:     logger,
	}
}

// Run imports the selected categories. Only one run may be active at a time.
func (c *ImportController) Run(ctx context.Context, opts ImportOptions) (*ImportSummary, error) {
	if !c.mu.TryLock() {
		return nil, ErrImportRunning
	}
	defer c.mu.Unlock()

	categories, err := utils.SelectCategories(opts.Categories, c.categories)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	c.logger.WithFields(logrus.Fields{
		"categories": len(categories),
		"resume":     opts.Resume,
		"limit":      opts.Limit,
	}).Info("Starting exercise import")

	walk, err := c.walker.Run(ctx, categories, opts.Resume, opts.Limit)
	summary := &ImportSummary{
		WalkResult: walk,
		Categories: categories,
		Duration:   time.Since(started),
	}
	if err != nil {
		recordRun(resultFailed, started)
		c.logger.WithError(err).WithFields(logrus.Fields{
			"imported":  walk.Imported,
			"persisted": len(walk.Persisted),
		}).Error("Exercise import failed")
		return summary, err
	}

	if walk.LimitReached {
		recordRun(resultLimitReached, started)
		c.logger.WithFields(logrus.Fields{
			"imported": walk.Imported,
			"distinct": walk.Distinct,
			"limit":    opts.Limit,
		}).Warn("Exercise import stopped at the record limit, resume to continue")
	} else {
		recordRun(resultSuccess, started)
		c.logger.WithFields(logrus.Fields{
			"imported": walk.Imported,
			"skipped":  len(walk.Skipped),
			"duration": summary.Duration.Round(time.Millisecond),
		}).Info("Exercise import completed")
	}

	stats, err := c.statsCtrl.Report(ctx, c.out)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to report exercise statistics")
		return summary, nil
	}
	summary.Stats = stats
	return summary, nil
}
