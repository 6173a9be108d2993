package controllers

import (
	"bytes"
	"context"
	"testing"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/stretchr/testify/require"
)

func seedExercise(t *testing.T, db *models.Database, id string, category models.Category, muscles, equipment []string) {
	t.Helper()
	require.NoError(t, db.UpsertExercise(context.Background(), &models.Exercise{
		ExternalID:       id,
		Name:             id,
		TargetMuscles:    muscles,
		BodyParts:        []string{},
		Equipment:        equipment,
		SecondaryMuscles: []string{},
		Instructions:     []string{},
		Category:         category,
	}))
}

func TestStatsCollectSortsByCountThenName(t *testing.T) {
	h := newHarness(t)
	seedExercise(t, h.db, "a", models.CategoryStrength, []string{"biceps"}, []string{"barbell"})
	seedExercise(t, h.db, "b", models.CategoryStrength, []string{"biceps", "forearms"}, []string{"dumbbell"})
	seedExercise(t, h.db, "c", models.CategoryBodyweight, []string{"abs"}, []string{"body weight"})
	seedExercise(t, h.db, "d", models.CategoryCardio, []string{"cardiovascular system"}, []string{"treadmill", "body weight"})
	seedExercise(t, h.db, "e", models.Category(9), []string{"abs"}, []string{})

	stats, err := NewStatsController(h.db, h.logger).Collect(context.Background())
	require.NoError(t, err)

	require.Equal(t, 5, stats.Total)
	require.Equal(t, []Count{
		{Name: "Strength Training", Count: 2},
		{Name: "Bodyweight", Count: 1},
		{Name: "Cardio", Count: 1},
		{Name: "Unknown", Count: 1},
	}, stats.ByCategory)
	require.Equal(t, []Count{
		{Name: "abs", Count: 2},
		{Name: "biceps", Count: 2},
		{Name: "cardiovascular system", Count: 1},
		{Name: "forearms", Count: 1},
	}, stats.ByMuscle)
	require.Equal(t, []Count{
		{Name: "body weight", Count: 2},
		{Name: "barbell", Count: 1},
		{Name: "dumbbell", Count: 1},
		{Name: "treadmill", Count: 1},
	}, stats.ByEquipment)
}

func TestStatsReportEmptyCatalog(t *testing.T) {
	h := newHarness(t)
	var out bytes.Buffer

	stats, err := NewStatsController(h.db, h.logger).Report(context.Background(), &out)
	require.NoError(t, err)
	require.Zero(t, stats.Total)
	require.Equal(t, "Total exercises: 0\n\n"+
		"Exercise distribution by category:\n\n"+
		"Exercise distribution by target muscle:\n\n"+
		"Exercise distribution by equipment:\n", out.String())
}

func TestWriteStats(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteStats(&out, &Stats{
		Total:       3,
		ByCategory:  []Count{{Name: "Cardio", Count: 3}},
		ByMuscle:    []Count{{Name: "abs", Count: 3}},
		ByEquipment: []Count{{Name: "treadmill", Count: 3}},
	}))
	require.Contains(t, out.String(), "Total exercises: 3\n")
	require.Contains(t, out.String(), "- Cardio: 3 exercises\n")
	require.Contains(t, out.String(), "- treadmill: 3 exercises\n")
}
