package metrics

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/goflow/perf"
	"github.com/nomis52/goflow/resource"
)

func TestProfileExporter(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter, err := NewProfileExporter(reg, logger)
	require.NoError(t, err)

	exporter.Export(perf.Profile{
		WorkflowID:  "etl",
		Executions:  12,
		AvgDuration: 85.5,
		SuccessRate: 0.9,
		FailureRate: 0.1,
		Resources:   resource.Usage{CPU: 64},
	})

	body := scrape(t, reg)
	assert.Contains(t, body, `workflow_executions_total{workflow="etl"} 12`)
	assert.Contains(t, body, `workflow_avg_duration_seconds{workflow="etl"} 85.5`)
	assert.Contains(t, body, `workflow_success_rate{workflow="etl"} 0.9`)
	assert.Contains(t, body, `workflow_failure_rate{workflow="etl"} 0.1`)
	assert.Contains(t, body, `workflow_cpu_usage_percent{workflow="etl"} 64`)
}

func TestProfileExporter_UpdatesInPlace(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter, err := NewProfileExporter(reg, logger)
	require.NoError(t, err)

	exporter.Export(perf.Profile{WorkflowID: "etl", Executions: 1})
	exporter.Export(perf.Profile{WorkflowID: "etl", Executions: 2})

	body := scrape(t, reg)
	assert.Contains(t, body, `workflow_executions_total{workflow="etl"} 2`)
	assert.NotContains(t, body, `workflow_executions_total{workflow="etl"} 1`)
}
