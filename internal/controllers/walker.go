package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/exercisedb-sync/internal/cache"
	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/services/exercisedb"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CursorTTL bounds how long an interrupted run can be resumed
const CursorTTL = 24 * time.Hour

// CategoryFetcher returns every exercise of a category
type CategoryFetcher interface {
	FetchCategory(ctx context.Context, category string) ([]exercisedb.RawExercise, error)
}

// BatchSaver persists one category batch atomically
type BatchSaver interface {
	SaveBatch(ctx context.Context, category string, records []exercisedb.RawExercise) BatchResult
}

// WalkResult summarizes a walk over the category list
type WalkResult struct {
	Imported     int      // Records in committed batches, duplicates across categories included
	Distinct     int      // Distinct exercises in committed batches
	StartIndex   int      // Index of the first category visited
	Persisted    []string // Categories whose batch was committed
	Skipped      []string // Categories that returned no exercises
	Completed    bool     // Every remaining category was visited
	LimitReached bool     // Stopped early because of the record limit
}

// CategoryWalker fetches and saves categories one after the other, checkpointing the
// last committed category in the cursor store
type CategoryWalker struct {
	fetcher CategoryFetcher
	saver   BatchSaver
	cursor  cache.Store
	tracer  trace.Tracer
	logger  *logrus.Logger
}

// NewCategoryWalker creates a new category walker
func NewCategoryWalker(fetcher CategoryFetcher, saver BatchSaver, cursor cache.Store, logger *logrus.Logger) *CategoryWalker {
	return &CategoryWalker{
		fetcher: fetcher,
		saver:   saver,
		cursor:  cursor,
		tracer:  otel.Tracer("github.com/amaumene/exercisedb-sync/internal/controllers"),
		logger:  logger,
	}
}

// Run walks categories in order. With resume set it starts right after the category
// stored in the cursor. A limit > 0 stops the walk between categories once that many
// distinct exercises were imported.
//
// A fatal fetch error or a failed batch stops the walk and is returned; the cursor then
// still names the last committed category. The cursor is cleared once every category
// was visited.
func (w *CategoryWalker) Run(ctx context.Context, categories []string, resume bool, limit int) (WalkResult, error) {
	result := WalkResult{}
	seen := map[string]struct{}{}
	if resume {
		result.StartIndex = w.resumeIndex(ctx, categories)
	}

	remaining := categories[result.StartIndex:]
	for i, category := range remaining {
		if limit > 0 && result.Distinct >= limit {
			w.logger.WithFields(logrus.Fields{
				"limit":    limit,
				"distinct": result.Distinct,
				"next":     category,
			}).Warn("Import limit reached, stopping before next category")
			result.LimitReached = true
			return result, nil
		}

		w.logger.WithFields(logrus.Fields{
			"category": category,
			"progress": fmt.Sprintf("%d/%d", i+1, len(remaining)),
		}).Info("Processing category")

		committed, err := w.walkCategory(ctx, category)
		if err != nil {
			return result, err
		}
		if len(committed) == 0 {
			categoriesSkippedCounter.Inc()
			result.Skipped = append(result.Skipped, category)
			continue
		}

		result.Imported += len(committed)
		for _, record := range committed {
			seen[record.ExerciseID] = struct{}{}
		}
		result.Distinct = len(seen)
		result.Persisted = append(result.Persisted, category)
		if err := w.cursor.Put(ctx, models.CursorKey, category, CursorTTL); err != nil {
			w.logger.WithError(err).WithField("category", category).Error("Failed to save import cursor")
		}
	}

	result.Completed = true
	if err := w.cursor.Delete(ctx, models.CursorKey); err != nil {
		w.logger.WithError(err).Warn("Failed to clear import cursor")
	}
	return result, nil
}

// walkCategory fetches and saves one category, returning the committed records
func (w *CategoryWalker) walkCategory(ctx context.Context, category string) ([]exercisedb.RawExercise, error) {
	ctx, span := w.tracer.Start(ctx, "import.category",
		trace.WithAttributes(attribute.String("exercisedb.category", category)))
	defer span.End()

	records, err := w.fetcher.FetchCategory(ctx, category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to fetch %q: %w", category, err)
	}
	if len(records) == 0 {
		w.logger.WithField("category", category).Warn("No exercises fetched, moving on")
		return nil, nil
	}

	batch := w.saver.SaveBatch(ctx, category, records)
	if batch.Err != nil {
		span.RecordError(batch.Err)
		span.SetStatus(codes.Error, batch.Err.Error())
		return nil, batch.Err
	}

	span.SetAttributes(attribute.Int("import.committed", batch.Committed))
	w.logger.WithFields(logrus.Fields{
		"category": category,
		"count":    batch.Committed,
	}).Info("Category imported")
	return records, nil
}

// resumeIndex returns where a resumed walk starts. An unreadable cursor or one naming
// an unknown category restarts from the beginning.
func (w *CategoryWalker) resumeIndex(ctx context.Context, categories []string) int {
	last, found, err := w.cursor.Get(ctx, models.CursorKey)
	if err != nil {
		w.logger.WithError(err).Warn("Failed to read import cursor, starting from the beginning")
		return 0
	}
	if !found {
		w.logger.Info("No import cursor found, starting from the beginning")
		return 0
	}

	index, ok := ResumeIndex(categories, last)
	if !ok {
		w.logger.WithField("cursor", last).Warn("Import cursor names an unknown category, starting from the beginning")
		return 0
	}

	w.logger.WithField("after", last).Info("Resuming import")
	return index
}

// ResumeIndex returns the index following last in categories
func ResumeIndex(categories []string, last string) (int, bool) {
	for i, category := range categories {
		if category == last {
			return i + 1, true
		}
	}
	return 0, false
}
