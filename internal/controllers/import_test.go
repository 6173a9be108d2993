package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/services/exercisedb"
	"github.com/amaumene/exercisedb-sync/internal/testsupport"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestImportController(h *harness) (*ImportController, *bytes.Buffer) {
	out := &bytes.Buffer{}
	statsCtrl := NewStatsController(h.db, h.logger)
	return NewImportController(h.walker, statsCtrl, out, h.logger), out
}

func TestImportRunReportsStatistics(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("biceps", testsupport.MakeExercises("biceps", 4, "barbell"), 10)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 2), 10)
	ctrl, out := newTestImportController(h)

	successBefore := testutil.ToFloat64(runCounter.WithLabelValues(resultSuccess))

	summary, err := ctrl.Run(context.Background(), ImportOptions{Categories: []string{"biceps", "abs"}})
	require.NoError(t, err)
	require.Equal(t, []string{"abs", "biceps"}, summary.Categories)
	require.Equal(t, 6, summary.Imported)
	require.True(t, summary.Completed)
	require.NotNil(t, summary.Stats)
	require.Equal(t, 6, summary.Stats.Total)

	require.Contains(t, out.String(), "Total exercises: 6\n")
	require.Contains(t, out.String(), "- Strength Training: 4 exercises\n")
	require.Contains(t, out.String(), "- Bodyweight: 2 exercises\n")
	require.Equal(t, successBefore+1, testutil.ToFloat64(runCounter.WithLabelValues(resultSuccess)))
}

func TestImportRunRejectsUnknownCategory(t *testing.T) {
	h := newHarness(t)
	ctrl, _ := newTestImportController(h)

	_, err := ctrl.Run(context.Background(), ImportOptions{Categories: []string{"bicep"}})
	require.EqualError(t, err, `unknown category "bicep", did you mean "biceps"?`)
	require.Empty(t, h.upstream.Requests())
}

func TestImportRunFailureReturnsError(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 2), 10)
	h.upstream.Queue("abs", 1, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests)
	ctrl, out := newTestImportController(h)

	failedBefore := testutil.ToFloat64(runCounter.WithLabelValues(resultFailed))

	summary, err := ctrl.Run(context.Background(), ImportOptions{})
	require.ErrorIs(t, err, exercisedb.ErrRetryExhausted)
	require.NotNil(t, summary)
	require.Nil(t, summary.Stats)
	require.Empty(t, out.String(), "no statistics after a failed import")
	require.Equal(t, failedBefore+1, testutil.ToFloat64(runCounter.WithLabelValues(resultFailed)))
}

func TestImportRunLimitReached(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abductors", testsupport.MakeExercises("abductors", 3), 10)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 3), 10)
	ctrl, out := newTestImportController(h)

	summary, err := ctrl.Run(context.Background(), ImportOptions{Limit: 2})
	require.NoError(t, err)
	require.True(t, summary.LimitReached)
	require.Equal(t, 3, summary.Imported)
	require.Contains(t, out.String(), "Total exercises: 3\n")

	cursor, found := h.cursorValue(t)
	require.True(t, found)
	require.Equal(t, "abductors", cursor)

	summary, err = ctrl.Run(context.Background(), ImportOptions{Resume: true, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 1, summary.StartIndex)
	require.True(t, summary.LimitReached)
}

func TestImportRunStatsFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.upstream.SetCategory("abs", testsupport.MakeExercises("abs", 2), 10)
	ctrl, _ := newTestImportController(h)
	ctrl.out = failingWriter{}

	summary, err := ctrl.Run(context.Background(), ImportOptions{Categories: []string{"abs"}})
	require.NoError(t, err)
	require.Nil(t, summary.Stats)
	require.True(t, h.hasWarning("Failed to report exercise statistics"))
	require.EqualValues(t, 2, h.count(t))
}

func TestImportRunIsExclusive(t *testing.T) {
	h := newHarness(t)
	ctrl, _ := newTestImportController(h)

	ctrl.mu.Lock()
	_, err := ctrl.Run(context.Background(), ImportOptions{})
	ctrl.mu.Unlock()
	require.ErrorIs(t, err, ErrImportRunning)

	_, err = ctrl.Run(context.Background(), ImportOptions{Categories: []string{models.MuscleCategories[0]}})
	require.NoError(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errFailingWriter
}

var errFailingWriter = errors.New("disk full")
