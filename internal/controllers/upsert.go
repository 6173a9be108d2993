package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/services/exercisedb"
	"github.com/sirupsen/logrus"
)

// DefaultChunkSize is the number of records between two progress reports
const DefaultChunkSize = 50

// errMissingExternalID rejects records that cannot be keyed
var errMissingExternalID = errors.New("record has no exerciseId")

// BatchResult is the outcome of saving one category batch: either Committed records
// or an error, in which case nothing of the batch was written
type BatchResult struct {
	Committed int
	Err       error
}

// PersistenceError wraps a failure that rolled back a category batch
type PersistenceError struct {
	Category   string
	ExternalID string // Record being written when the batch failed, if any
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.ExternalID == "" {
		return fmt.Sprintf("saving %q exercises failed: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("saving %q exercises failed at %q: %v", e.Category, e.ExternalID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RecordUpserter writes category batches to the database
type RecordUpserter struct {
	db        *models.Database
	chunkSize int
	logger    *logrus.Logger
}

// NewRecordUpserter creates a new record upserter
func NewRecordUpserter(db *models.Database, logger *logrus.Logger) *RecordUpserter {
	return &RecordUpserter{
		db:        db,
		chunkSize: DefaultChunkSize,
		logger:    logger,
	}
}

// SaveBatch upserts every record of a category in a single transaction.
// Chunks only drive progress reporting; a failure in any chunk rolls back all of them.
func (u *RecordUpserter) SaveBatch(ctx context.Context, category string, records []exercisedb.RawExercise) BatchResult {
	logger := u.logger.WithField("category", category)
	chunks := chunk(records, u.chunkSize)

	logger.WithFields(logrus.Fields{
		"count":  len(records),
		"chunks": len(chunks),
	}).Info("Saving exercises")

	var failedID string
	err := u.db.Transaction(ctx, func(tx *models.Database) error {
		for i, batch := range chunks {
			for _, raw := range batch {
				exercise, err := MapExercise(raw)
				if err != nil {
					failedID = raw.ExerciseID
					return err
				}
				if err := tx.UpsertExercise(ctx, exercise); err != nil {
					failedID = raw.ExerciseID
					return err
				}
			}
			logger.WithFields(logrus.Fields{
				"chunk":  i + 1,
				"chunks": len(chunks),
			}).Info("Chunk saved")
		}
		return nil
	})
	if err != nil {
		batchFailureCounter.WithLabelValues(category).Inc()
		return BatchResult{Err: &PersistenceError{Category: category, ExternalID: failedID, Err: err}}
	}

	recordsUpsertedCounter.WithLabelValues(category).Add(float64(len(records)))
	return BatchResult{Committed: len(records)}
}

// MapExercise converts an ExerciseDB record into the persisted entity and classifies it
func MapExercise(raw exercisedb.RawExercise) (*models.Exercise, error) {
	if raw.ExerciseID == "" {
		return nil, fmt.Errorf("%w (name %q)", errMissingExternalID, raw.Name)
	}

	return &models.Exercise{
		ExternalID:       raw.ExerciseID,
		Name:             raw.Name,
		MediaURL:         raw.GifURL,
		TargetMuscles:    nonNil(raw.TargetMuscles),
		BodyParts:        nonNil(raw.BodyParts),
		Equipment:        nonNil(raw.Equipments),
		SecondaryMuscles: nonNil(raw.SecondaryMuscles),
		Instructions:     nonNil(raw.Instructions),
		Category:         models.DetermineCategory(raw.Equipments),
	}, nil
}

// nonNil stores missing lists as [] rather than null
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func chunk(records []exercisedb.RawExercise, size int) [][]exercisedb.RawExercise {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]exercisedb.RawExercise
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
