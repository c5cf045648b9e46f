// Package trigger re-executes workflows on schedules declared in their
// definitions.
//
// Interval triggers are fully supported: each one runs in its own goroutine
// and starts the workflow every period until the context is cancelled.
// Cron triggers are validated at construction (the expression must parse)
// but cron scheduling itself is not implemented; the manager logs and
// ignores them.
//
// Example usage:
//
//	mgr, err := trigger.NewManager(orc.Workflows(), orc, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr.Start(ctx)  // Returns immediately, runs in background
//	<-ctx.Done()    // Wait for shutdown signal
package trigger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronExpression is returned when a cron trigger's expression
// cannot be parsed.
var ErrInvalidCronExpression = errors.New("invalid cron expression")

// ErrInvalidInterval is returned when an interval trigger has a
// non-positive period.
var ErrInvalidInterval = errors.New("interval must be positive")

// Starter is implemented by anything that can start a workflow run.
// *engine.Orchestrator satisfies it.
type Starter interface {
	ExecuteWorkflow(workflowID string, params map[string]string) (string, error)
}

// IntervalTrigger starts a workflow every fixed period.
type IntervalTrigger struct {
	workflowID string
	interval   time.Duration
	starter    Starter
	logger     *slog.Logger
}

// NewIntervalTrigger creates a trigger that starts workflowID every
// interval. Returns ErrInvalidInterval if the period is not positive.
func NewIntervalTrigger(workflowID string, interval time.Duration, starter Starter, logger *slog.Logger) (*IntervalTrigger, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &IntervalTrigger{
		workflowID: workflowID,
		interval:   interval,
		starter:    starter,
		logger:     logger,
	}, nil
}

// Start launches a goroutine that triggers runs on the interval.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (t *IntervalTrigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (t *IntervalTrigger) NextRun() time.Time {
	return time.Now().Add(t.interval)
}

// loop is the main scheduling loop that runs in a goroutine.
func (t *IntervalTrigger) loop(ctx context.Context) {
	for {
		t.logger.Debug("waiting for next scheduled run",
			"workflow_id", t.workflowID,
			"interval", t.interval,
		)

		select {
		case <-ctx.Done():
			t.logger.Info("interval trigger shutting down", "workflow_id", t.workflowID)
			return
		case <-time.After(t.interval):
			t.executeRun()
		}
	}
}

// executeRun starts the workflow and logs the result.
func (t *IntervalTrigger) executeRun() {
	runID, err := t.starter.ExecuteWorkflow(t.workflowID, nil)
	if err != nil {
		t.logger.Warn("scheduled run failed to start",
			"workflow_id", t.workflowID,
			"error", err,
		)
		return
	}
	t.logger.Info("scheduled run started",
		"workflow_id", t.workflowID,
		"run_id", runID,
	)
}

// validateCron checks that a cron expression parses with the standard
// 5-field format. Scheduling semantics are deliberately not implemented.
func validateCron(expression string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expression); err != nil {
		return errors.Join(ErrInvalidCronExpression, err)
	}
	return nil
}
