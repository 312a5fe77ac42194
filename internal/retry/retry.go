package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/gigradar/internal/model"
)

// RetrySource is a decorator that retries transient source failures with
// exponential backoff and jitter.
type RetrySource struct {
	inner      model.Source
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySource wraps a Source with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetrySource(inner model.Source, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger.With("source", inner.Name()),
	}
}

// Name returns the wrapped source's name.
func (s *RetrySource) Name() string {
	return s.inner.Name()
}

// FetchJobs fetches from the wrapped source, retrying on transient errors.
func (s *RetrySource) FetchJobs(ctx context.Context) ([]model.Job, error) {
	jobs, err := s.inner.FetchJobs(ctx)
	if err == nil {
		return jobs, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("retry cancelled after %v: %w", err, ctx.Err())
	}
	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt, lastErr)

		s.logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		jobs, err = s.inner.FetchJobs(ctx)
		if err == nil {
			return jobs, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("retry cancelled after %v: %w", err, ctx.Err())
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After hint from an HTTP 429 takes precedence.
func (s *RetrySource) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable reports whether err is a transient failure worth retrying.
// Sources wrap the joined per-endpoint errors, so the whole tree is walked
// and the error is retryable when any leaf is. Request timeouts count as
// network failures; the caller's own cancellation is checked in FetchJobs.
func isRetryable(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *model.HTTPError:
		return e.Temporary()
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if isRetryable(inner) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		if inner := e.Unwrap(); inner != nil {
			return isRetryable(inner)
		}
	}

	// Network and DNS failures.
	return true
}
