package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()

	base := []Option{
		WithLogger(testLogger()),
		WithRetryDelay(5 * time.Millisecond),
	}
	orc, err := New(append(base, opts...)...)
	require.NoError(t, err, "orchestrator construction should succeed")
	return orc
}

// waitForRun polls until the run leaves the running state.
func waitForRun(t *testing.T, orc *Orchestrator, runID string) Run {
	t.Helper()

	var final Run
	require.Eventually(t, func() bool {
		r, err := orc.Run(runID)
		if err != nil {
			return false
		}
		final = r
		return r.Status != RunRunning
	}, 5*time.Second, 2*time.Millisecond, "run should reach a terminal status")
	return final
}

func taskByTemplate(t *testing.T, r Run, templateID string) TaskInstance {
	t.Helper()

	for _, task := range r.Tasks {
		if task.TemplateID == templateID {
			return task
		}
	}
	t.Fatalf("run has no task instance for template %s", templateID)
	return TaskInstance{}
}

// recordingExecutor tracks executions and lets tests control outcomes.
type recordingExecutor struct {
	mu    sync.Mutex
	calls []string // template IDs in execution order

	// fail maps template IDs to errors returned on every attempt.
	fail map[string]error

	// delay is applied before returning, honoring context cancellation.
	delay time.Duration
}

func (e *recordingExecutor) Execute(ctx context.Context, task TaskInstance) (any, error) {
	e.mu.Lock()
	e.calls = append(e.calls, task.TemplateID)
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.delay):
		}
	}

	if e.fail != nil {
		if err, exists := e.fail[task.TemplateID]; exists {
			return nil, err
		}
	}
	return "ok:" + task.TemplateID, nil
}

func (e *recordingExecutor) callCount(templateID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, id := range e.calls {
		if id == templateID {
			n++
		}
	}
	return n
}

// memoryHistory is an in-process RunHistory for tests.
type memoryHistory struct {
	mu   sync.Mutex
	recs []RunRecord
}

func (h *memoryHistory) Append(rec RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return nil
}

func (h *memoryHistory) Runs() ([]RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RunRecord(nil), h.recs...), nil
}

func (h *memoryHistory) records() []RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RunRecord(nil), h.recs...)
}

func intPtr(n int) *int {
	return &n
}
