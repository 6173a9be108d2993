package models

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNotFound is returned when a lookup matches no exercise
var ErrNotFound = errors.New("exercise not found")

// upsertColumns are overwritten when an external ID is imported again
var upsertColumns = []string{
	"name",
	"media_url",
	"target_muscles",
	"body_parts",
	"equipment",
	"secondary_muscles",
	"instructions",
	"category",
	"updated_at",
}

// beginnerEquipment marks exercises suitable without gym access
var beginnerEquipment = []string{"body weight", "dumbbell", "resistance band"}

// Database wraps the gorm connection
type Database struct {
	db *gorm.DB
}

// NewDatabase opens the SQLite database at path and applies pending migrations
func NewDatabase(path string, logger *logrus.Logger) (*Database, error) {
	gdb, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite serializes writers anyway; a single connection avoids "database is locked"
	sqlDB.SetMaxOpenConns(1)

	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, result := range results {
		logger.WithFields(logrus.Fields{
			"version":  result.Source.Version,
			"duration": result.Duration,
		}).Debug("Applied migration")
	}

	return &Database{db: gdb}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside a database transaction. Any error returned by fn, or a
// panic, rolls back every write made through the transactional Database.
func (d *Database) Transaction(ctx context.Context, fn func(tx *Database) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Database{db: tx})
	})
}

// Exercise operations

// UpsertExercise inserts an exercise or overwrites the row with the same external ID
func (d *Database) UpsertExercise(ctx context.Context, exercise *Exercise) error {
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(exercise).Error
}

// GetExerciseByExternalID retrieves an exercise by its ExerciseDB ID
func (d *Database) GetExerciseByExternalID(ctx context.Context, externalID string) (*Exercise, error) {
	var exercise Exercise
	err := d.db.WithContext(ctx).Where("external_id = ?", externalID).First(&exercise).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// GetAllExercises retrieves all exercises ordered by insertion
func (d *Database) GetAllExercises(ctx context.Context) ([]*Exercise, error) {
	var exercises []*Exercise
	err := d.db.WithContext(ctx).Order("id").Find(&exercises).Error
	return exercises, err
}

// CountExercises returns the number of stored exercises
func (d *Database) CountExercises(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Exercise{}).Count(&count).Error
	return count, err
}

// CategoryCount is one row of the per-category distribution
type CategoryCount struct {
	Category Category
	Count    int64
}

// CountByCategory groups exercises by category
func (d *Database) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := d.db.WithContext(ctx).
		Model(&Exercise{}).
		Select("category, count(*) as count").
		Group("category").
		Scan(&rows).Error
	return rows, err
}

// ExerciseFilter narrows FindExercises. Zero values disable a filter.
type ExerciseFilter struct {
	Muscle     string   // Target muscle contained in target_muscles
	Equipment  string   // Item contained in equipment
	Category   Category // Exact category
	MinMuscles int      // Compound exercises: at least this many target muscles
	Beginner   bool     // Body weight, dumbbell or resistance band
	Limit      int
	Offset     int
}

// FindExercises returns exercises matching filter ordered by name
func (d *Database) FindExercises(ctx context.Context, filter ExerciseFilter) ([]*Exercise, error) {
	query := d.db.WithContext(ctx).Model(&Exercise{})

	if filter.Muscle != "" {
		query = query.Where("EXISTS (SELECT 1 FROM json_each(exercises.target_muscles) WHERE json_each.value = ?)", filter.Muscle)
	}
	if filter.Equipment != "" {
		query = query.Where("EXISTS (SELECT 1 FROM json_each(exercises.equipment) WHERE json_each.value = ?)", filter.Equipment)
	}
	if filter.Category != 0 {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinMuscles > 0 {
		query = query.Where("json_array_length(exercises.target_muscles) >= ?", filter.MinMuscles)
	}
	if filter.Beginner {
		query = query.Where("EXISTS (SELECT 1 FROM json_each(exercises.equipment) WHERE json_each.value IN ?)", beginnerEquipment)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var exercises []*Exercise
	err := query.Order("name").Find(&exercises).Error
	return exercises, err
}
