package engine

import (
	"fmt"
	"time"
)

// Trigger types accepted in WorkflowDefinition trigger lists.
const (
	// TriggerInterval re-executes the workflow every Interval.
	TriggerInterval = "interval"

	// TriggerCron carries a cron expression. Expressions are validated at
	// registration time but cron scheduling is not implemented; the trigger
	// manager logs and ignores them.
	TriggerCron = "cron"
)

// Trigger describes when a workflow should be executed automatically.
type Trigger struct {
	// Type is one of TriggerInterval or TriggerCron.
	Type string `json:"type" yaml:"type"`

	// Interval is the re-execution period for interval triggers.
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`

	// Expression is the cron expression for cron triggers.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// TaskTemplate is the static definition of one node in a workflow DAG.
type TaskTemplate struct {
	// ID identifies the template within its workflow definition.
	ID string `json:"id" yaml:"id"`

	// Name is a human-readable label.
	Name string `json:"name" yaml:"name"`

	// Type selects the executor that runs instances of this template.
	// The engine does not interpret it beyond routing.
	Type string `json:"type" yaml:"type"`

	// Dependencies lists template IDs that must complete before instances
	// of this template become ready.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Timeout bounds a single execution attempt. Zero means no limit.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// MaxRetries overrides the workflow default when non-nil.
	MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`

	// Metadata is free-form and merged into each instance.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// WorkflowDefinition is the template for a workflow: a named DAG of task
// templates plus trigger and retry defaults. Definitions are immutable once
// registered except through explicit updates.
type WorkflowDefinition struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Tasks       []TaskTemplate `json:"tasks" yaml:"tasks"`
	Triggers    []Trigger      `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Timeout     time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries  int            `json:"max_retries" yaml:"max_retries"`
	Active      bool           `json:"active" yaml:"active"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the structural invariants of a definition: non-empty ID,
// unique task IDs, and dependency references that point at other templates
// within the same definition.
func (d *WorkflowDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("workflow ID is required")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("workflow %s has no tasks", d.ID)
	}

	ids := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("workflow %s: task ID is required", d.ID)
		}
		if t.Type == "" {
			return fmt.Errorf("workflow %s: task %s has no type", d.ID, t.ID)
		}
		if ids[t.ID] {
			return fmt.Errorf("workflow %s: duplicate task ID %s", d.ID, t.ID)
		}
		ids[t.ID] = true
	}

	for _, t := range d.Tasks {
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return fmt.Errorf("workflow %s: task %s depends on itself", d.ID, t.ID)
			}
			if !ids[dep] {
				return fmt.Errorf("workflow %s: task %s depends on unknown task %s", d.ID, t.ID, dep)
			}
		}
	}

	for _, tr := range d.Triggers {
		switch tr.Type {
		case TriggerInterval:
			if tr.Interval <= 0 {
				return fmt.Errorf("workflow %s: interval trigger requires a positive interval", d.ID)
			}
		case TriggerCron:
			if tr.Expression == "" {
				return fmt.Errorf("workflow %s: cron trigger requires an expression", d.ID)
			}
		default:
			return fmt.Errorf("workflow %s: unknown trigger type %q", d.ID, tr.Type)
		}
	}

	return nil
}

// retriesFor resolves the retry budget for one template, falling back to the
// workflow default.
func (d *WorkflowDefinition) retriesFor(t *TaskTemplate) int {
	if t.MaxRetries != nil {
		return *t.MaxRetries
	}
	return d.MaxRetries
}

// TaskInstance is one execution-time instantiation of a TaskTemplate, scoped
// to a single workflow run. Instances are owned by the orchestrator; callers
// observe them as snapshot copies.
type TaskInstance struct {
	// ID is unique per run, derived from the run ID and template ID.
	ID string `json:"id"`

	// TemplateID is the template this instance was created from.
	TemplateID string `json:"template_id"`

	RunID      string `json:"run_id"`
	WorkflowID string `json:"workflow_id"`

	Name string `json:"name"`
	Type string `json:"type"`

	Dependencies []string `json:"dependencies,omitempty"`

	Status TaskStatus `json:"status"`

	// Retries counts attempts beyond the first; it never exceeds MaxRetries.
	Retries    int `json:"retries"`
	MaxRetries int `json:"max_retries"`

	Timeout time.Duration `json:"timeout,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result holds the executor's payload after successful completion.
	Result any `json:"result,omitempty"`

	// Error holds the failure message once the task fails terminally.
	Error string `json:"error,omitempty"`

	// Metadata is the template metadata merged with caller-supplied params.
	Metadata map[string]string `json:"metadata,omitempty"`

	// notBefore delays rescheduling after a failed attempt.
	notBefore time.Time
}

// newTaskInstance creates a pending instance of a template for one run,
// merging caller params over the template metadata.
func newTaskInstance(d *WorkflowDefinition, t *TaskTemplate, runID string, params map[string]string) *TaskInstance {
	meta := make(map[string]string, len(t.Metadata)+len(params))
	for k, v := range t.Metadata {
		meta[k] = v
	}
	for k, v := range params {
		meta[k] = v
	}

	deps := make([]string, len(t.Dependencies))
	copy(deps, t.Dependencies)

	return &TaskInstance{
		ID:           runID + "/" + t.ID,
		TemplateID:   t.ID,
		RunID:        runID,
		WorkflowID:   d.ID,
		Name:         t.Name,
		Type:         t.Type,
		Dependencies: deps,
		Status:       StatusPending,
		MaxRetries:   d.retriesFor(t),
		Timeout:      t.Timeout,
		CreatedAt:    time.Now(),
		Metadata:     meta,
	}
}

// snapshot returns a copy safe to hand to subscribers and callers.
func (t *TaskInstance) snapshot() TaskInstance {
	c := *t
	c.Dependencies = append([]string(nil), t.Dependencies...)
	if t.Metadata != nil {
		c.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}
