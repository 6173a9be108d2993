package controllers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/amaumene/exercisedb-sync/internal/cache"
	"github.com/amaumene/exercisedb-sync/internal/config"
	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/services/exercisedb"
	"github.com/amaumene/exercisedb-sync/internal/testsupport"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const testRetryDelay = 10 * time.Second

// sleepRecorder records waits instead of blocking
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

// harness wires a walker against a fake upstream, a temporary database and a file cursor
type harness struct {
	upstream *testsupport.Upstream
	db       *models.Database
	cursor   *cache.FileStore
	sleeps   *sleepRecorder
	walker   *CategoryWalker
	logger   *logrus.Logger
	hook     *test.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()

	dir := t.TempDir()
	db, err := models.NewDatabase(filepath.Join(dir, "exercises.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cursor, err := cache.OpenFileStore(filepath.Join(dir, "cursor.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cursor.Close() })

	upstream := testsupport.NewUpstream(t)
	client, err := exercisedb.NewClient(&config.Config{
		ExerciseDBBaseURL: upstream.BaseURL(),
		HTTPTimeout:       5 * time.Second,
	}, logger)
	require.NoError(t, err)

	sleeps := &sleepRecorder{}
	fetcher := exercisedb.NewFetcher(client, exercisedb.NewRetryPolicy(testRetryDelay), logger,
		exercisedb.WithSleep(sleeps.sleep))

	return &harness{
		upstream: upstream,
		db:       db,
		cursor:   cursor,
		sleeps:   sleeps,
		walker:   NewCategoryWalker(fetcher, NewRecordUpserter(db, logger), cursor, logger),
		logger:   logger,
		hook:     hook,
	}
}

func (h *harness) count(t *testing.T) int64 {
	t.Helper()
	n, err := h.db.CountExercises(context.Background())
	require.NoError(t, err)
	return n
}

func (h *harness) cursorValue(t *testing.T) (string, bool) {
	t.Helper()
	value, found, err := h.cursor.Get(context.Background(), models.CursorKey)
	require.NoError(t, err)
	return value, found
}

func (h *harness) hasWarning(message string) bool {
	for _, entry := range h.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == message {
			return true
		}
	}
	return false
}
