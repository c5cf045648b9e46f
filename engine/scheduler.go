package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many task instances of one run may execute
// simultaneously unless the orchestrator is configured otherwise.
const DefaultConcurrency = 10

// scheduler drives one run at a time: it repeatedly computes the ready set,
// dispatches up to the concurrency bound, and waits for the whole batch to
// reach a terminal status before advancing. There is no pipelining across
// batches.
type scheduler struct {
	bound     int
	retry     *RetryController
	executors *ExecutorRegistry
	notifier  *Notifier
	metrics   *engineMetrics
	logger    *slog.Logger
}

// runLoop executes the run until every instance is terminal, the graph turns
// out to be unsatisfiable, or the context is cancelled.
func (s *scheduler) runLoop(ctx context.Context, r *run) error {
	logger := s.logger.With("run_id", r.id, "workflow_id", r.def.ID)

	for {
		if err := ctx.Err(); err != nil {
			return s.abort(r, s.abortCause(r, err))
		}

		r.mu.Lock()
		if r.cancelRequested {
			r.cancelRemaining(time.Now())
			r.mu.Unlock()
			return ErrRunCancelled
		}

		ready, pending, nextAttempt := s.readySet(r)
		if pending == 0 {
			r.mu.Unlock()
			logger.Debug("all task instances terminal, run loop finished")
			return nil
		}

		if len(ready) == 0 {
			r.mu.Unlock()

			// Tasks backing off after a failed attempt are pending but not
			// ready. Sleep until the earliest one becomes eligible instead of
			// declaring the graph stuck.
			if !nextAttempt.IsZero() {
				wait := time.Until(nextAttempt)
				logger.Debug("waiting for retry backoff", "wait", wait)
				select {
				case <-ctx.Done():
					return s.abort(r, s.abortCause(r, ctx.Err()))
				case <-time.After(wait):
				}
				continue
			}

			logger.Error("no runnable tasks but run is incomplete",
				"pending", pending,
			)
			return s.abort(r, fmt.Errorf("%w: %d task(s) can never become ready", ErrCircularDependency, pending))
		}

		if len(ready) > s.bound {
			ready = ready[:s.bound]
		}

		now := time.Now()
		for _, t := range ready {
			t.Status = StatusRunning
			started := now
			t.StartedAt = &started
		}
		r.mu.Unlock()

		if s.metrics != nil {
			s.metrics.tasksRunning(r.def.ID, len(ready))
		}
		logger.Debug("dispatching batch", "batch_size", len(ready))

		var g errgroup.Group
		for _, t := range ready {
			t := t
			g.Go(func() error {
				s.executeTask(ctx, r, t)
				return nil
			})
		}
		// Batch barrier: the next ready set is only computed after every
		// dispatched task reached a terminal status or re-entered pending.
		_ = g.Wait()

		if s.metrics != nil {
			s.metrics.tasksRunning(r.def.ID, -len(ready))
		}
	}
}

// readySet computes the dispatchable tasks in template declaration order.
// Returns the ready tasks, the count of pending instances, and the earliest
// retry-backoff deadline among pending-but-not-ready tasks (zero if none).
// Caller holds r.mu.
func (s *scheduler) readySet(r *run) ([]*TaskInstance, int, time.Time) {
	now := time.Now()
	var ready []*TaskInstance
	var nextAttempt time.Time
	pending := 0

	for _, t := range r.instances {
		if t.Status != StatusPending {
			continue
		}
		pending++

		satisfied := true
		for _, dep := range t.Dependencies {
			if !r.completed[dep] {
				satisfied = false
				break
			}
		}
		if !satisfied {
			continue
		}

		if now.Before(t.notBefore) {
			if nextAttempt.IsZero() || t.notBefore.Before(nextAttempt) {
				nextAttempt = t.notBefore
			}
			continue
		}

		ready = append(ready, t)
	}
	return ready, pending, nextAttempt
}

// executeTask runs a single dispatched instance and applies the outcome.
func (s *scheduler) executeTask(ctx context.Context, r *run, t *TaskInstance) {
	logger := s.logger.With(
		"run_id", r.id,
		"workflow_id", r.def.ID,
		"task", t.TemplateID,
		"task_type", t.Type,
	)

	ex, err := s.executors.Lookup(t.Type)
	if err != nil {
		// No executor can ever satisfy this type; fail without retrying.
		logger.Error("no executor registered for task type", "error", err)
		s.applyOutcome(r, t, nil, err, false, logger)
		return
	}

	tctx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	logger.Info("executing task", "attempt", t.Retries+1)
	result, err := ex.Execute(tctx, t.snapshot())
	s.applyOutcome(r, t, result, err, err != nil, logger)
}

// applyOutcome records a task attempt's result under the run lock and emits
// the matching terminal event, if any.
func (s *scheduler) applyOutcome(r *run, t *TaskInstance, result any, err error, retryable bool, logger *slog.Logger) {
	now := time.Now()

	r.mu.Lock()
	var event *Event
	switch {
	case err == nil:
		t.Status = StatusCompleted
		t.CompletedAt = &now
		t.Result = result
		t.Error = ""
		r.completed[t.TemplateID] = true
		r.markTerminal(t)

		snap := t.snapshot()
		event = &Event{Kind: EventTaskCompleted, RunID: r.id, WorkflowID: r.def.ID, Task: &snap}
		logger.Info("task completed")

	case retryable && s.retry.Decide(t, now):
		// Retry re-entry: the instance goes back to pending with a linear
		// backoff deadline. Not a terminal transition, so no event fires.
		logger.Warn("task failed, scheduling retry",
			"error", err,
			"retry", t.Retries,
			"max_retries", t.MaxRetries,
			"next_attempt", t.notBefore,
		)
		if s.metrics != nil {
			s.metrics.taskRetried(r.def.ID)
		}

	default:
		t.Status = StatusFailed
		t.CompletedAt = &now
		t.Error = err.Error()
		r.markTerminal(t)

		snap := t.snapshot()
		event = &Event{Kind: EventTaskFailed, RunID: r.id, WorkflowID: r.def.ID, Task: &snap}
		logger.Error("task failed terminally",
			"error", err,
			"attempts", t.Retries+1,
		)
	}
	r.mu.Unlock()

	if event != nil {
		s.notifier.Publish(*event)
	}
}

// abortCause resolves the error recorded for a context-triggered abort.
// Cancel cancels the run context, so a plain ctx.Err() would record
// "context canceled" on explicitly cancelled runs.
func (s *scheduler) abortCause(r *run, err error) error {
	r.mu.Lock()
	cancelled := r.cancelRequested
	r.mu.Unlock()
	if cancelled {
		return ErrRunCancelled
	}
	return err
}

// abort cancels every non-terminal instance and surfaces the given error.
// Completed results are preserved and remain reportable.
func (s *scheduler) abort(r *run, err error) error {
	r.mu.Lock()
	r.cancelRemaining(time.Now())
	r.mu.Unlock()
	return err
}
