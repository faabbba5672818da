package helpers

import (
	"context"
	"fmt"
	"time"

	"nepse-observer/src/logger"
	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryObserver receives one event per attempt outcome.
type RetryObserver func(models.MFetchEvent)

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleep       SleepFunc // nil means a real timer
}

// DefaultRetryPolicy is 4 attempts with 1s, 2s, 4s between them, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// PolicyFromConfig builds a policy from the refresh block of the config.
// Zero values fall back to the defaults.
func PolicyFromConfig(cfg models.MRefreshConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseBackoffMs > 0 {
		p.BaseDelay = time.Duration(cfg.BaseBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		p.MaxDelay = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	return p
}

// -----------------------------------------------------------------------------

// Backoff returns the wait after the failed attempt with the given zero-based index:
// min(BaseDelay * 2^attempt, MaxDelay).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext blocks for d unless ctx ends first.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// -----------------------------------------------------------------------------

// FetchWithRetry runs fn until it succeeds or MaxAttempts attempts have failed.
// It never panics: a panicking fn counts as a failed attempt. The error returned
// after exhaustion (or cancellation during a wait) is a *FetchError.
func FetchWithRetry[T any](
	ctx context.Context,
	operation string,
	policy RetryPolicy,
	fn func(ctx context.Context) (T, error),
	log *logger.Logger,
	observe RetryObserver,
) (T, error) {
	var zero T

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	emit := func(attempt int, outcome models.FetchOutcome, delay time.Duration, err error) {
		if observe == nil {
			return
		}
		ev := models.MFetchEvent{
			Feed:        models.FeedName(operation),
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Outcome:     outcome,
			Delay:       delay,
			At:          time.Now(),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		observe(ev)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := invoke(ctx, fn)
		if err == nil {
			emit(attempt+1, models.OutcomeSuccess, 0, nil)
			return res, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		delay := policy.Backoff(attempt)
		if log != nil {
			log.Warning("%s failed (attempt %d/%d): %v. Retrying in %v", operation, attempt+1, maxAttempts, err, delay)
		}
		emit(attempt+1, models.OutcomeRetry, delay, err)

		if sleepErr := policy.sleep(ctx, delay); sleepErr != nil {
			emit(attempt+1, models.OutcomeExhausted, 0, sleepErr)
			return zero, &FetchError{Operation: operation, Attempts: attempt + 1, Cause: sleepErr}
		}
	}

	if log != nil {
		log.Error("%s failed after %d attempts: %v", operation, maxAttempts, lastErr)
	}
	emit(maxAttempts, models.OutcomeExhausted, 0, lastErr)
	return zero, &FetchError{Operation: operation, Attempts: maxAttempts, Cause: lastErr}
}

// invoke calls fn once, turning a panic into an error.
func invoke[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
