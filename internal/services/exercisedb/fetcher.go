package exercisedb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amaumene/exercisedb-sync/internal/services/exercisedb"

// PageGetter is the part of Client the Fetcher depends on
type PageGetter interface {
	CategoryURL(category string) string
	GetPage(ctx context.Context, pageURL string) (*PageResponse, error)
}

// Fetcher assembles the complete exercise list of a category, following pagination and
// retrying rate-limited or failed requests
type Fetcher struct {
	client    PageGetter
	policy    RetryPolicy
	pageDelay time.Duration
	sleep     SleepFunc
	tracer    trace.Tracer
	logger    *logrus.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithSleep replaces the function used for backoff and inter-page waits
func WithSleep(sleep SleepFunc) FetcherOption {
	return func(f *Fetcher) { f.sleep = sleep }
}

// WithPageDelay overrides the fixed wait between two pages
func WithPageDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.pageDelay = d }
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) FetcherOption {
	return func(f *Fetcher) { f.tracer = tp.Tracer(tracerName) }
}

// NewFetcher creates a new category fetcher
func NewFetcher(client PageGetter, policy RetryPolicy, logger *logrus.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    client,
		policy:    policy,
		pageDelay: DefaultPageDelay,
		sleep:     Sleep,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchCategory returns every exercise listed under category, in page order.
//
// A non-429 error status skips the category: the result is empty and the error nil.
// Rate limits and transport failures are retried with backoff; the retry budget covers
// the whole category, not a single page. Once it is used up a *RetryExhaustedError is
// returned.
func (f *Fetcher) FetchCategory(ctx context.Context, category string) ([]RawExercise, error) {
	ctx, span := f.tracer.Start(ctx, "exercisedb.fetch_category",
		trace.WithAttributes(attribute.String("exercisedb.category", category)))
	defer span.End()

	logger := f.logger.WithField("category", category)

	var exercises []RawExercise
	pageURL := f.client.CategoryURL(category)
	page := 1
	totalPages := 0
	retries := 0

	for {
		resp, err := f.getPage(ctx, category, pageURL, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				span.SetStatus(codes.Error, ctxErr.Error())
				return nil, ctxErr
			}

			var statusErr *StatusError
			if errors.As(err, &statusErr) && !IsRateLimited(err) {
				recordFetchError(category, reasonStatus)
				logger.WithFields(logrus.Fields{
					"page":        page,
					"status_code": statusErr.StatusCode,
				}).Error("Failed to fetch exercises, skipping category")
				span.SetAttributes(attribute.Int("http.status_code", statusErr.StatusCode))
				span.SetStatus(codes.Error, "category skipped")
				return nil, nil
			}

			retries++
			delay := f.policy.Delay(retries)
			if IsRateLimited(err) {
				recordFetchError(category, reasonRateLimited)
				logger.WithFields(logrus.Fields{
					"page":  page,
					"wait":  delay,
					"retry": fmt.Sprintf("%d/%d", retries, f.policy.MaxRetries),
				}).Warn("Rate limit hit, backing off")
			} else {
				recordFetchError(category, reasonTransient)
				logger.WithError(err).WithFields(logrus.Fields{
					"page":  page,
					"wait":  delay,
					"retry": fmt.Sprintf("%d/%d", retries, f.policy.MaxRetries),
				}).Warn("Error occurred, backing off")
			}

			if err := f.sleep(ctx, delay); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			recordRetryWait(delay)

			if f.policy.Exhausted(retries) {
				exhausted := &RetryExhaustedError{Category: category, Attempts: retries, Err: err}
				span.RecordError(exhausted)
				span.SetStatus(codes.Error, exhausted.Error())
				return nil, exhausted
			}
			continue
		}

		exercises = append(exercises, resp.Data...)
		recordPage(category)

		if page == 1 {
			totalPages = resp.Metadata.TotalPages
			logger.WithFields(logrus.Fields{
				"total_exercises": resp.Metadata.TotalExercises,
				"total_pages":     totalPages,
			}).Info("Found exercises")
		}
		logger.WithFields(logrus.Fields{
			"page":  page,
			"pages": totalPages,
		}).Debug("Page fetched")

		if resp.Metadata.NextPage == "" || page >= totalPages {
			break
		}

		if err := f.sleep(ctx, f.pageDelay); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		pageURL = resp.Metadata.NextPage
		page++
	}

	span.SetAttributes(
		attribute.Int("exercisedb.pages", page),
		attribute.Int("exercisedb.exercises", len(exercises)),
	)
	return exercises, nil
}

// getPage fetches one page inside its own span
func (f *Fetcher) getPage(ctx context.Context, category, pageURL string, page int) (*PageResponse, error) {
	ctx, span := f.tracer.Start(ctx, "exercisedb.fetch_page", trace.WithAttributes(
		attribute.String("exercisedb.category", category),
		attribute.Int("exercisedb.page", page),
	))
	defer span.End()

	resp, err := f.client.GetPage(ctx, pageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}
