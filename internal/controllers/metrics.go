package controllers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsUpsertedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "import",
		Name:      "records_upserted_total",
		Help:      "Number of exercises written in committed batches, per category.",
	}, []string{"category"})

	batchFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "import",
		Name:      "batch_failures_total",
		Help:      "Number of category batches rolled back.",
	}, []string{"category"})

	categoriesSkippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "import",
		Name:      "categories_skipped_total",
		Help:      "Number of categories that returned no exercises.",
	})

	runCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Number of import runs by result.",
	}, []string{"result"})

	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "import",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last import that traversed every category.",
	})

	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "import",
		Name:      "run_duration_seconds",
		Help:      "Duration of import runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(
		recordsUpsertedCounter,
		batchFailureCounter,
		categoriesSkippedCounter,
		runCounter,
		lastSuccessGauge,
		runDuration,
	)
}

const (
	resultSuccess      = "success"
	resultLimitReached = "limit_reached"
	resultFailed       = "failed"
)

func recordRun(result string, started time.Time) {
	runCounter.WithLabelValues(result).Inc()
	runDuration.Observe(time.Since(started).Seconds())
	if result == resultSuccess {
		lastSuccessGauge.SetToCurrentTime()
	}
}
