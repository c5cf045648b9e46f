package engine

// TaskStatus represents the execution state of a task instance
type TaskStatus int

const (
	// StatusPending indicates the task is waiting for its dependencies
	// or for a retry backoff interval to elapse
	StatusPending TaskStatus = iota

	// StatusRunning indicates the task is currently executing
	StatusRunning

	// StatusCompleted indicates the task finished successfully
	StatusCompleted

	// StatusFailed indicates the task failed and its retry budget is exhausted
	StatusFailed

	// StatusCancelled indicates the run was cancelled before the task reached
	// a terminal state
	StatusCancelled
)

// String returns a human-readable representation of the TaskStatus
func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// IsTerminal returns true if the task can no longer change state.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RunStatus represents the overall state of a workflow run.
type RunStatus int

const (
	// RunRunning indicates the run's scheduling loop is still active.
	RunRunning RunStatus = iota

	// RunSucceeded indicates every task instance completed successfully.
	RunSucceeded

	// RunFailed indicates at least one task failed terminally, or the
	// dependency graph could not be satisfied.
	RunFailed

	// RunCancelled indicates the run was interrupted via Cancel.
	RunCancelled
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	switch s {
	case RunRunning:
		return "running"
	case RunSucceeded:
		return "succeeded"
	case RunFailed:
		return "failed"
	case RunCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
