package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/services/exercisedb"
	"github.com/amaumene/exercisedb-sync/internal/testsupport"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestWalkerImportIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 12, "dumbbell"), 5)
	h.upstream.SetCategory("biceps", testsupport.MakeExercises("biceps", 3, "barbell"), 5)
	ctx := context.Background()

	first, err := h.walker.Run(ctx, models.MuscleCategories, false, 0)
	require.NoError(t, err)
	require.True(t, first.Completed)
	require.Equal(t, 15, first.Imported)
	require.Equal(t, []string{"abs", "biceps"}, first.Persisted)
	require.Len(t, first.Skipped, len(models.MuscleCategories)-2)

	before, err := h.db.GetExerciseByExternalID(ctx, "abs-7")
	require.NoError(t, err)

	second, err := h.walker.Run(ctx, models.MuscleCategories, false, 0)
	require.NoError(t, err)
	require.Equal(t, 15, second.Imported)
	require.EqualValues(t, 15, h.count(t))

	after, err := h.db.GetExerciseByExternalID(ctx, "abs-7")
	require.NoError(t, err)
	require.Equal(t, before.ID, after.ID)
	require.Equal(t, before.Name, after.Name)
	require.Equal(t, models.CategoryStrength, after.Category)

	_, found := h.cursorValue(t)
	require.False(t, found, "cursor is cleared after a complete walk")
}

func TestWalkerPaginationWaitsBetweenPages(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 25), 10)

	result, err := h.walker.Run(context.Background(), []string{"abs"}, false, 0)
	require.NoError(t, err)
	require.Equal(t, 25, result.Imported)
	require.Equal(t, []time.Duration{exercisedb.DefaultPageDelay, exercisedb.DefaultPageDelay}, h.sleeps.delays)
}

func TestWalkerPartialBatchRollsBack(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abductors", testsupport.MakeExercises("abductors", 2), 10)

	records := testsupport.MakeExercises("abs", 250)
	records[160].ExerciseID = ""
	h.upstream.SetCategory("abs", records, 50)

	result, err := h.walker.Run(context.Background(), models.MuscleCategories, false, 0)
	require.Error(t, err)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, "abs", persistErr.Category)
	require.ErrorIs(t, err, errMissingExternalID)

	require.False(t, result.Completed)
	require.Equal(t, []string{"abductors"}, result.Persisted)
	require.EqualValues(t, 2, h.count(t), "no abs record survives the rollback")

	cursor, found := h.cursorValue(t)
	require.True(t, found)
	require.Equal(t, "abductors", cursor)
	require.Equal(t, []string{"abductors", "abs"}, h.upstream.RequestedCategories())
}

func TestWalkerResumesAfterCursor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.upstream.SetCategory("calves", testsupport.MakeExercises("calves", 4), 10)
	require.NoError(t, h.cursor.Put(ctx, models.CursorKey, "biceps", CursorTTL))

	result, err := h.walker.Run(ctx, models.MuscleCategories, true, 0)
	require.NoError(t, err)
	require.Equal(t, 4, result.StartIndex)
	require.True(t, result.Completed)

	requested := h.upstream.RequestedCategories()
	require.Equal(t, models.MuscleCategories[4:], requested)
	for _, skipped := range models.MuscleCategories[:4] {
		require.NotContains(t, requested, skipped)
	}
}

func TestWalkerUnknownCursorRestarts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cursor.Put(ctx, models.CursorKey, "pecs", CursorTTL))

	result, err := h.walker.Run(ctx, models.MuscleCategories, true, 0)
	require.NoError(t, err)
	require.Equal(t, 0, result.StartIndex)
	require.Equal(t, models.MuscleCategories, h.upstream.RequestedCategories())
	require.True(t, h.hasWarning("Import cursor names an unknown category, starting from the beginning"))
}

func TestWalkerIgnoresCursorWithoutResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cursor.Put(ctx, models.CursorKey, "biceps", CursorTTL))

	result, err := h.walker.Run(ctx, []string{"abs", "biceps", "calves"}, false, 0)
	require.NoError(t, err)
	require.Equal(t, 0, result.StartIndex)
	require.Equal(t, []string{"abs", "biceps", "calves"}, h.upstream.RequestedCategories())
}

func TestWalkerSkipsCategoryOnServerError(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 5), 10)
	h.upstream.Queue("abs", 1, http.StatusInternalServerError)
	h.upstream.SetCategory("biceps", testsupport.MakeExercises("biceps", 3), 10)

	skippedBefore := testutil.ToFloat64(categoriesSkippedCounter)

	result, err := h.walker.Run(context.Background(), []string{"abs", "biceps"}, false, 0)
	require.NoError(t, err)
	require.True(t, result.Completed)
	require.Equal(t, []string{"abs"}, result.Skipped)
	require.Equal(t, []string{"biceps"}, result.Persisted)
	require.EqualValues(t, 3, h.count(t))
	require.Equal(t, skippedBefore+1, testutil.ToFloat64(categoriesSkippedCounter))
}

func TestWalkerRateLimitExhaustionIsFatal(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abductors", testsupport.MakeExercises("abductors", 2), 10)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 5), 10)
	h.upstream.Queue("abs", 1, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests)

	result, err := h.walker.Run(context.Background(), models.MuscleCategories, false, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, exercisedb.ErrRetryExhausted)

	var exhausted *exercisedb.RetryExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Equal(t, "abs", exhausted.Category)

	require.Equal(t, []time.Duration{testRetryDelay, 2 * testRetryDelay, 4 * testRetryDelay}, h.sleeps.delays)
	require.False(t, result.Completed)
	require.EqualValues(t, 2, h.count(t))

	cursor, found := h.cursorValue(t)
	require.True(t, found)
	require.Equal(t, "abductors", cursor)
	require.NotContains(t, h.upstream.RequestedCategories(), "adductors")
}

func TestWalkerLimitStopsBetweenCategories(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	categories := []string{"abductors", "abs", "adductors"}
	for _, category := range categories {
		h.upstream.SetCategory(category, testsupport.MakeExercises(category, 3), 10)
	}

	result, err := h.walker.Run(ctx, categories, false, 5)
	require.NoError(t, err)
	require.True(t, result.LimitReached)
	require.False(t, result.Completed)
	require.Equal(t, 6, result.Imported)
	require.Equal(t, []string{"abductors", "abs"}, h.upstream.RequestedCategories())

	cursor, found := h.cursorValue(t)
	require.True(t, found)
	require.Equal(t, "abs", cursor)

	resumed, err := h.walker.Run(ctx, categories, true, 5)
	require.NoError(t, err)
	require.Equal(t, 2, resumed.StartIndex)
	require.True(t, resumed.Completed)
	require.EqualValues(t, 9, h.count(t))
}

func TestResumeIndex(t *testing.T) {
	index, ok := ResumeIndex(models.MuscleCategories, "biceps")
	require.True(t, ok)
	require.Equal(t, 4, index)

	index, ok = ResumeIndex(models.MuscleCategories, "upper back")
	require.True(t, ok)
	require.Equal(t, len(models.MuscleCategories), index)

	_, ok = ResumeIndex(models.MuscleCategories, "pecs")
	require.False(t, ok)
}

func TestWalkerLimitCountsDistinctExercises(t *testing.T) {
	h := newHarness(t)
	shared := testsupport.MakeExercises("shared", 3)
	h.upstream.SetCategory("abs", shared, 10)
	h.upstream.SetCategory("biceps", shared, 10)
	h.upstream.SetCategory("calves", testsupport.MakeExercises("calves", 1), 10)

	result, err := h.walker.Run(context.Background(), []string{"abs", "biceps", "calves"}, false, 4)
	require.NoError(t, err)
	require.False(t, result.LimitReached)
	require.True(t, result.Completed)
	require.Equal(t, 7, result.Imported)
	require.Equal(t, 4, result.Distinct)
	require.Equal(t, []string{"abs", "biceps", "calves"}, h.upstream.RequestedCategories())
	require.EqualValues(t, 4, h.count(t))
}
