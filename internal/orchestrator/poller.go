package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ReadinessTimeoutError is returned when a poll exhausts its retry budget.
type ReadinessTimeoutError struct {
	Target   string
	Attempts int
	LastErr  error // last error returned by the check, if any
}

func (e *ReadinessTimeoutError) Error() string {
	msg := fmt.Sprintf("%s failed to be ready after %d attempts", e.Target, e.Attempts)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.LastErr }

// ErrInvalidBudget is returned when a poll is started with MaxRetries < 1.
var ErrInvalidBudget = errors.New("retry budget must allow at least one attempt")

// CheckFunc reports whether the polled condition holds. An error counts as
// "not ready yet"; it never aborts the poll on its own.
type CheckFunc func(ctx context.Context) (bool, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller evaluates a CheckFunc at a constant interval until it succeeds or
// the budget runs out.
type Poller struct {
	sleep SleepFunc
}

// NewPoller returns a Poller that waits on the wall clock.
func NewPoller() *Poller {
	return &Poller{sleep: sleepContext}
}

// PollUntilReady runs check up to budget.MaxRetries times, waiting exactly
// budget.RetryDelay between attempts. There is no wait after the last
// attempt. It returns the number of attempts made.
func (p *Poller) PollUntilReady(ctx context.Context, target string, budget RetryBudget, check CheckFunc) (int, error) {
	if budget.MaxRetries < 1 {
		return 0, fmt.Errorf("polling %s: %w (got %d)", target, ErrInvalidBudget, budget.MaxRetries)
	}

	var lastErr error
	for attempt := 1; attempt <= budget.MaxRetries; attempt++ {
		ok, err := check(ctx)
		if err == nil && ok {
			slog.InfoContext(ctx, "target is ready", "target", target, "attempt", attempt)
			return attempt, nil
		}
		lastErr = err

		slog.InfoContext(ctx, "waiting for target to be ready",
			"target", target,
			"attempt", attempt,
			"max_retries", budget.MaxRetries,
			"err", err,
		)

		if attempt == budget.MaxRetries {
			break
		}
		if err := p.sleep(ctx, budget.RetryDelay); err != nil {
			return attempt, fmt.Errorf("polling %s: %w", target, err)
		}
	}

	return budget.MaxRetries, &ReadinessTimeoutError{
		Target:   target,
		Attempts: budget.MaxRetries,
		LastErr:  lastErr,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
