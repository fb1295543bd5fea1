package labflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deepnoodle-ai/labflow/retry"
)

// WaitOutcome is the terminal outcome of polling one submitted task.
type WaitOutcome struct {
	// Status is SUCCEEDED, FAILED, or TIMED_OUT.
	Status StepStatus

	// ErrorDetail carries the remote error verbatim when Status is FAILED.
	ErrorDetail string

	// Polls is the number of status queries that were made.
	Polls int

	// Elapsed is the time between the first status query and the outcome.
	Elapsed time.Duration
}

// WaiterOptions are used to configure a Waiter.
type WaiterOptions struct {
	// Client performs the status queries. Required.
	Client StatusQuerier

	// Clock supplies time. Defaults to the system clock.
	Clock Clock

	// Logger for poll-level logging.
	Logger *slog.Logger

	// StatusRetries is the number of extra attempts made when a status
	// query fails recoverably. Zero means the first failure propagates.
	StatusRetries int

	// StatusRetryDelay is the pause between retry attempts. Defaults to
	// one second.
	StatusRetryDelay time.Duration
}

// Waiter polls a submitted task at a fixed interval until it reaches a
// terminal state or a deadline elapses.
type Waiter struct {
	client           StatusQuerier
	clock            Clock
	logger           *slog.Logger
	statusRetries    int
	statusRetryDelay time.Duration
}

// NewWaiter returns a Waiter configured with the given options.
func NewWaiter(opts WaiterOptions) (*Waiter, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("task client is required")
	}
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.StatusRetryDelay <= 0 {
		opts.StatusRetryDelay = time.Second
	}
	return &Waiter{
		client:           opts.Client,
		clock:            opts.Clock,
		logger:           opts.Logger,
		statusRetries:    opts.StatusRetries,
		statusRetryDelay: opts.StatusRetryDelay,
	}, nil
}

// Wait polls the task until it is terminal or maxWait elapses. The first
// query happens immediately and elapsed time is measured from it, so a task
// that is already terminal completes in a single poll with no sleep. FAILED
// and TIMED_OUT are outcomes, not errors; the returned error is reserved for
// status queries that could not be answered and for context cancellation.
func (w *Waiter) Wait(ctx context.Context, taskID string, pollInterval, maxWait time.Duration) (*WaitOutcome, error) {
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if maxWait <= 0 {
		return nil, fmt.Errorf("max wait must be positive")
	}

	start := w.clock.Now()
	polls := 0
	for {
		state, err := w.queryStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		polls++
		elapsed := w.clock.Now().Sub(start)
		w.logger.Debug("task status",
			"task_id", taskID,
			"status", state.Status,
			"polls", polls,
			"elapsed", elapsed)

		switch state.Status {
		case TaskStatusSucceeded:
			return &WaitOutcome{Status: StepStatusSucceeded, Polls: polls, Elapsed: elapsed}, nil
		case TaskStatusFailed:
			return &WaitOutcome{
				Status:      StepStatusFailed,
				ErrorDetail: state.Error,
				Polls:       polls,
				Elapsed:     elapsed,
			}, nil
		}

		if elapsed >= maxWait {
			w.logger.Warn("task wait timed out",
				"task_id", taskID,
				"polls", polls,
				"max_wait", maxWait)
			return &WaitOutcome{Status: StepStatusTimedOut, Polls: polls, Elapsed: elapsed}, nil
		}
		if err := w.clock.Sleep(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
}

// queryStatus performs one status query, retrying recoverable failures only
// when the waiter was configured with a retry budget.
func (w *Waiter) queryStatus(ctx context.Context, taskID string) (*TaskState, error) {
	state, err := w.client.GetStatus(ctx, taskID)
	if err == nil {
		return state, nil
	}
	for attempt := 1; attempt <= w.statusRetries && retry.IsRecoverable(err); attempt++ {
		w.logger.Warn("retrying status query",
			"task_id", taskID,
			"attempt", attempt,
			"error", err)
		if sleepErr := w.clock.Sleep(ctx, w.statusRetryDelay); sleepErr != nil {
			return nil, sleepErr
		}
		state, err = w.client.GetStatus(ctx, taskID)
		if err == nil {
			return state, nil
		}
	}
	return nil, err
}
