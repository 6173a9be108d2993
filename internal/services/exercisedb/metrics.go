package exercisedb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pagesFetchedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "fetcher",
		Name:      "pages_fetched_total",
		Help:      "Number of listing pages fetched successfully per category.",
	}, []string{"category"})

	fetchErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "fetcher",
		Name:      "errors_total",
		Help:      "Number of failed page requests grouped by category and reason.",
	}, []string{"category", "reason"})

	retryWaitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercisedb_sync",
		Subsystem: "fetcher",
		Name:      "retry_wait_seconds_total",
		Help:      "Seconds spent waiting in backoff before retrying a page.",
	})
)

func init() {
	prometheus.MustRegister(pagesFetchedCounter, fetchErrorCounter, retryWaitCounter)
}

const (
	reasonRateLimited = "rate_limited"
	reasonTransient   = "transient"
	reasonStatus      = "status"
)

func recordPage(category string) {
	pagesFetchedCounter.WithLabelValues(category).Inc()
}

func recordFetchError(category, reason string) {
	fetchErrorCounter.WithLabelValues(category, reason).Inc()
}

func recordRetryWait(d time.Duration) {
	retryWaitCounter.Add(d.Seconds())
}
