package engine

import (
	"log/slog"
	"sync"
	"time"
)

// EventKind identifies the lifecycle transition an Event describes.
type EventKind int

const (
	// EventTaskCompleted fires when a task instance completes successfully.
	EventTaskCompleted EventKind = iota

	// EventTaskFailed fires when a task instance fails terminally
	// (retry budget exhausted or unknown type). Retried attempts do not fire.
	EventTaskFailed

	// EventRunFinished fires once per run after every instance reached a
	// terminal status, carrying the run summary.
	EventRunFinished
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventTaskCompleted:
		return "task_completed"
	case EventTaskFailed:
		return "task_failed"
	case EventRunFinished:
		return "run_finished"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification emitted by the orchestrator.
type Event struct {
	Kind       EventKind
	RunID      string
	WorkflowID string
	Time       time.Time

	// Task is a snapshot of the instance for task events, nil otherwise.
	Task *TaskInstance

	// Summary is populated for EventRunFinished, nil otherwise.
	Summary *RunSummary
}

// RunSummary describes the outcome of a finished run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	WorkflowID string        `json:"workflow_id"`
	Status     RunStatus     `json:"status"`
	Duration   time.Duration `json:"duration"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Cancelled  int           `json:"cancelled"`
	Error      string        `json:"error,omitempty"`
}

const defaultSubscriberBuffer = 64

// Notifier fans lifecycle events out to subscribers. Delivery is
// fire-and-forget: publishing never blocks the scheduling loop, so a
// subscriber that stops draining its channel loses events.
type Notifier struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewNotifier creates a Notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its event channel together
// with a cancel function. The channel is buffered; events that arrive while
// the buffer is full are dropped for that subscriber only.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan Event, defaultSubscriberBuffer)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (n *Notifier) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subs {
		select {
		case ch <- e:
		default:
			n.logger.Warn("subscriber buffer full, dropping event",
				"subscriber", id,
				"event", e.Kind.String(),
				"run_id", e.RunID,
			)
		}
	}
}
