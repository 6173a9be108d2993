package exercisedb

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRetryExhausted matches every RetryExhaustedError
var ErrRetryExhausted = errors.New("retries exhausted")

// StatusError is returned when ExerciseDB answers with a non-2xx status
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("exercisedb API returned status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("exercisedb API returned status %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsRateLimited reports whether err is an HTTP 429 from ExerciseDB
func IsRateLimited(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests
}

// RetryExhaustedError is returned when a category used up its retry budget.
// It aborts the whole import run.
type RetryExhaustedError struct {
	Category string
	Attempts int
	Err      error // Last failure
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("fetching %q failed after %d retries: %v", e.Category, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRetryExhausted) match
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
