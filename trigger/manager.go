package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nomis52/goflow/engine"
)

// Manager owns the triggers for a set of workflow definitions.
type Manager struct {
	triggers []*IntervalTrigger
	logger   *slog.Logger
}

// NewManager builds triggers for every active workflow definition.
//
// Interval triggers become running IntervalTriggers. Cron expressions are
// validated so configuration mistakes surface at startup, but no cron
// scheduling is performed; each one is logged and skipped. Inactive
// workflows contribute no triggers.
func NewManager(defs []engine.WorkflowDefinition, starter Starter, logger *slog.Logger) (*Manager, error) {
	m := &Manager{logger: logger}

	for _, def := range defs {
		if !def.Active {
			continue
		}
		for _, tr := range def.Triggers {
			switch tr.Type {
			case engine.TriggerInterval:
				it, err := NewIntervalTrigger(def.ID, tr.Interval, starter, logger)
				if err != nil {
					return nil, fmt.Errorf("workflow %s: %w", def.ID, err)
				}
				m.triggers = append(m.triggers, it)
				logger.Info("interval trigger registered",
					"workflow_id", def.ID,
					"interval", tr.Interval,
				)

			case engine.TriggerCron:
				if err := validateCron(tr.Expression); err != nil {
					return nil, fmt.Errorf("workflow %s: %w", def.ID, err)
				}
				// Cron scheduling is not implemented; the expression is
				// accepted and validated only.
				logger.Warn("cron trigger accepted but not scheduled",
					"workflow_id", def.ID,
					"expression", tr.Expression,
				)

			default:
				return nil, fmt.Errorf("workflow %s: unknown trigger type %q", def.ID, tr.Type)
			}
		}
	}

	logger.Info("trigger manager created", "trigger_count", len(m.triggers))
	return m, nil
}

// Start launches all triggers. Each trigger runs in its own goroutine.
// Returns immediately. All goroutines exit when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, t := range m.triggers {
		t.Start(ctx)
	}
}

// Count returns the number of active triggers.
func (m *Manager) Count() int {
	return len(m.triggers)
}

// NextRun returns the earliest scheduled run time across all triggers.
// Returns zero time if there are no triggers.
func (m *Manager) NextRun() time.Time {
	if len(m.triggers) == 0 {
		return time.Time{}
	}

	earliest := m.triggers[0].NextRun()
	for i := 1; i < len(m.triggers); i++ {
		next := m.triggers[i].NextRun()
		if next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}
