package engine

// WorkflowStore persists workflow definitions. Implementations must
// round-trip every definition field, including timestamps.
//
// The engine treats storage as an external collaborator: the orchestrator
// writes through on registration changes and reads the full set on Restore.
type WorkflowStore interface {
	// Load returns all stored definitions.
	Load() ([]WorkflowDefinition, error)

	// Save persists a definition, replacing any previous version.
	Save(def WorkflowDefinition) error

	// Delete removes a definition by ID. Deleting an unknown ID is not an
	// error.
	Delete(id string) error
}

// RunHistory records finished workflow runs. Implementations must not block
// for long; the orchestrator appends from the run-completion path.
type RunHistory interface {
	// Append stores a finished run record.
	Append(rec RunRecord) error

	// Runs returns stored records, most recent first.
	Runs() ([]RunRecord, error)
}
