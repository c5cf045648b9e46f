package engine

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/goflow/metrics"
)

// engineMetrics instruments the orchestrator via the metrics.Registry
// abstraction so the same code serves scrape and push deployments.
type engineMetrics struct {
	runsTotal    metrics.CounterVec
	retriesTotal metrics.CounterVec
	runningGauge metrics.GaugeVec
	runDuration  metrics.GaugeVec

	mu      sync.Mutex
	running map[string]int
}

func newEngineMetrics(reg metrics.Registry) (*engineMetrics, error) {
	runsTotal, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "goflow_runs_total",
		Help: "Workflow runs by final status.",
	}, []string{"workflow", "status"})
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	retriesTotal, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "goflow_task_retries_total",
		Help: "Task attempts re-queued by the retry controller.",
	}, []string{"workflow"})
	if err != nil {
		return nil, fmt.Errorf("creating retries counter: %w", err)
	}

	runningGauge, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goflow_tasks_running",
		Help: "Task instances currently executing.",
	}, []string{"workflow"})
	if err != nil {
		return nil, fmt.Errorf("creating running gauge: %w", err)
	}

	runDuration, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goflow_run_duration_seconds",
		Help: "Wall-clock duration of the most recent run.",
	}, []string{"workflow"})
	if err != nil {
		return nil, fmt.Errorf("creating duration gauge: %w", err)
	}

	return &engineMetrics{
		runsTotal:    runsTotal,
		retriesTotal: retriesTotal,
		runningGauge: runningGauge,
		runDuration:  runDuration,
		running:      make(map[string]int),
	}, nil
}

// tasksRunning adjusts the running-task gauge for a workflow by delta.
func (m *engineMetrics) tasksRunning(workflowID string, delta int) {
	m.mu.Lock()
	m.running[workflowID] += delta
	count := m.running[workflowID]
	m.mu.Unlock()

	m.runningGauge.With(prometheus.Labels{"workflow": workflowID}).Set(float64(count))
}

func (m *engineMetrics) taskRetried(workflowID string) {
	m.retriesTotal.With(prometheus.Labels{"workflow": workflowID}).Inc()
}

func (m *engineMetrics) runFinished(workflowID string, status RunStatus, seconds float64) {
	m.runsTotal.With(prometheus.Labels{
		"workflow": workflowID,
		"status":   status.String(),
	}).Inc()
	m.runDuration.With(prometheus.Labels{"workflow": workflowID}).Set(seconds)
}
