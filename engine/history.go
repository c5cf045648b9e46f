package engine

import "time"

// TaskRecord is the persisted outcome of one task instance.
type TaskRecord struct {
	TemplateID  string     `json:"template_id"`
	Name        string     `json:"name,omitempty"`
	Type        string     `json:"type"`
	Status      TaskStatus `json:"status"`
	Retries     int        `json:"retries"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunRecord is the persisted outcome of one workflow run.
type RunRecord struct {
	RunID      string       `json:"run_id"`
	WorkflowID string       `json:"workflow_id"`
	Status     RunStatus    `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	EndedAt    time.Time    `json:"ended_at"`
	Error      string       `json:"error,omitempty"`
	Tasks      []TaskRecord `json:"tasks"`
}

// record builds the persistable run record. Caller holds r.mu.
func (r *run) record() RunRecord {
	rec := RunRecord{
		RunID:      r.id,
		WorkflowID: r.def.ID,
		Status:     r.status,
		StartedAt:  r.startedAt,
	}
	if r.endedAt != nil {
		rec.EndedAt = *r.endedAt
	}
	if r.err != nil {
		rec.Error = r.err.Error()
	}
	for _, t := range r.instances {
		tr := TaskRecord{
			TemplateID: t.TemplateID,
			Name:       t.Name,
			Type:       t.Type,
			Status:     t.Status,
			Retries:    t.Retries,
			Error:      t.Error,
		}
		if t.StartedAt != nil {
			st := *t.StartedAt
			tr.StartedAt = &st
		}
		if t.CompletedAt != nil {
			ct := *t.CompletedAt
			tr.CompletedAt = &ct
		}
		rec.Tasks = append(rec.Tasks, tr)
	}
	return rec
}
