package engine

import (
	"context"
	"sync"
	"time"
)

// run holds the mutable state for one workflow execution. All fields below mu
// are guarded by it; the lock is run-scoped so unrelated runs never contend.
type run struct {
	id  string
	def WorkflowDefinition

	cancel context.CancelFunc

	mu sync.Mutex

	// instances holds every task instance in template declaration order.
	instances []*TaskInstance

	// active indexes non-terminal instances by template ID.
	active map[string]*TaskInstance

	// completed holds template IDs whose instances completed successfully.
	// Terminally failed tasks never join this set, so their dependents can
	// never become ready.
	completed map[string]bool

	cancelRequested bool

	status    RunStatus
	startedAt time.Time
	endedAt   *time.Time
	err       error
}

func newRun(id string, def WorkflowDefinition, params map[string]string) *run {
	r := &run{
		id:        id,
		def:       def,
		active:    make(map[string]*TaskInstance, len(def.Tasks)),
		completed: make(map[string]bool, len(def.Tasks)),
		status:    RunRunning,
		startedAt: time.Now(),
	}

	for i := range def.Tasks {
		inst := newTaskInstance(&def, &def.Tasks[i], id, params)
		r.instances = append(r.instances, inst)
		r.active[inst.TemplateID] = inst
	}
	return r
}

// markTerminal removes an instance from the active index. Caller holds mu.
func (r *run) markTerminal(t *TaskInstance) {
	delete(r.active, t.TemplateID)
}

// cancelRemaining marks every non-terminal instance cancelled.
// Caller holds mu.
func (r *run) cancelRemaining(now time.Time) {
	for _, t := range r.instances {
		if t.Status.IsTerminal() {
			continue
		}
		t.Status = StatusCancelled
		t.CompletedAt = &now
		r.markTerminal(t)
	}
}

// summary builds the run summary. Caller holds mu.
func (r *run) summary() RunSummary {
	s := RunSummary{
		RunID:      r.id,
		WorkflowID: r.def.ID,
		Status:     r.status,
	}
	if r.endedAt != nil {
		s.Duration = r.endedAt.Sub(r.startedAt)
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	for _, t := range r.instances {
		switch t.Status {
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Run is a point-in-time snapshot of a workflow run.
type Run struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    *time.Time     `json:"ended_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	Tasks      []TaskInstance `json:"tasks"`
}

// snapshot copies the run state for external callers. Caller must not hold mu.
func (r *run) snapshot() Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Run{
		ID:         r.id,
		WorkflowID: r.def.ID,
		Status:     r.status,
		StartedAt:  r.startedAt,
		Tasks:      make([]TaskInstance, 0, len(r.instances)),
	}
	if r.endedAt != nil {
		t := *r.endedAt
		out.EndedAt = &t
	}
	if r.err != nil {
		out.Error = r.err.Error()
	}
	for _, t := range r.instances {
		out.Tasks = append(out.Tasks, t.snapshot())
	}
	return out
}
