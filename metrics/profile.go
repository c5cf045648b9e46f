package metrics

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/goflow/perf"
)

// ProfileExporter publishes workflow performance profiles as gauges. It is
// typically driven from a run-finished event subscription, so monitoring
// backends see the rolling profile without polling the engine.
type ProfileExporter struct {
	logger *slog.Logger

	executions  GaugeVec
	avgDuration GaugeVec
	successRate GaugeVec
	failureRate GaugeVec
	cpuUsage    GaugeVec
}

// NewProfileExporter creates a ProfileExporter against the given registry.
func NewProfileExporter(reg Registry, logger *slog.Logger) (*ProfileExporter, error) {
	e := &ProfileExporter{logger: logger}
	labels := []string{"workflow"}

	gauges := []struct {
		target *GaugeVec
		name   string
		help   string
	}{
		{&e.executions, "workflow_executions_total", "Total recorded runs per workflow."},
		{&e.avgDuration, "workflow_avg_duration_seconds", "Cumulative mean run duration."},
		{&e.successRate, "workflow_success_rate", "Smoothed run success rate."},
		{&e.failureRate, "workflow_failure_rate", "Smoothed run failure rate."},
		{&e.cpuUsage, "workflow_cpu_usage_percent", "Averaged CPU usage observed at run completion."},
	}

	for _, g := range gauges {
		vec, err := reg.NewGaugeVec(prometheus.GaugeOpts{Name: g.name, Help: g.help}, labels)
		if err != nil {
			return nil, fmt.Errorf("creating gauge %q: %w", g.name, err)
		}
		*g.target = vec
	}
	return e, nil
}

// Export publishes one profile's current statistics.
func (e *ProfileExporter) Export(p perf.Profile) {
	labels := prometheus.Labels{"workflow": p.WorkflowID}

	e.executions.With(labels).Set(float64(p.Executions))
	e.avgDuration.With(labels).Set(p.AvgDuration)
	e.successRate.With(labels).Set(p.SuccessRate)
	e.failureRate.With(labels).Set(p.FailureRate)
	e.cpuUsage.With(labels).Set(p.Resources.CPU)

	e.logger.Debug("exported workflow profile",
		"workflow_id", p.WorkflowID,
		"executions", p.Executions,
	)
}
