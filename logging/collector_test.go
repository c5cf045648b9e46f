package logging

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCollector(t *testing.T) {
	c := NewLogCollector()

	assert.Nil(t, c.Logs("unknown"), "no entries for an unknown run")

	entry := LogEntry{
		Time:    time.Now(),
		Level:   "INFO",
		Message: "task completed",
		Attributes: map[string]any{
			"task": "extract",
		},
	}
	c.Add("run-1", entry)
	c.Add("run-1", LogEntry{Level: "WARN", Message: "retry scheduled"})
	c.Add("run-2", LogEntry{Level: "INFO", Message: "other run"})

	logs := c.Logs("run-1")
	require.Len(t, logs, 2)
	assert.Equal(t, "task completed", logs[0].Message)
	assert.Equal(t, "retry scheduled", logs[1].Message)

	// Returned slices are copies.
	logs[0].Message = "mutated"
	assert.Equal(t, "task completed", c.Logs("run-1")[0].Message)

	c.Drop("run-1")
	assert.Nil(t, c.Logs("run-1"))
	assert.Len(t, c.Logs("run-2"), 1, "dropping one run leaves others intact")
}

func TestCapturingHandler_CapturesAndForwards(t *testing.T) {
	var buf bytes.Buffer
	underlying := slog.NewJSONHandler(&buf, nil)
	collector := NewLogCollector()

	logger := slog.New(NewCapturingHandler(underlying, collector, "run-1"))
	logger.Info("executing task", "task", "extract", "attempt", int64(1))

	logs := collector.Logs("run-1")
	require.Len(t, logs, 1)
	assert.Equal(t, "executing task", logs[0].Message)
	assert.Equal(t, "INFO", logs[0].Level)
	assert.Equal(t, "extract", logs[0].Attributes["task"])
	assert.Equal(t, int64(1), logs[0].Attributes["attempt"])

	assert.Contains(t, buf.String(), "executing task", "records still reach the underlying handler")
}

func TestCapturingHandler_CapturesBelowUnderlyingLevel(t *testing.T) {
	var buf bytes.Buffer
	underlying := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	collector := NewLogCollector()

	logger := slog.New(NewCapturingHandler(underlying, collector, "run-1"))
	logger.Debug("noisy detail")

	require.Len(t, collector.Logs("run-1"), 1, "capture ignores the output level filter")
	assert.Empty(t, buf.String(), "the underlying handler still filters output")
}

func TestCapturingHandler_SurvivesWith(t *testing.T) {
	collector := NewLogCollector()
	handler := NewCapturingHandler(slog.NewTextHandler(io.Discard, nil), collector, "run-1")

	logger := slog.New(handler).With("workflow_id", "etl").WithGroup("engine")
	logger.Info("task failed", "error", errors.New("boom"))

	logs := collector.Logs("run-1")
	require.Len(t, logs, 1)
	assert.Equal(t, "etl", logs[0].Attributes["workflow_id"], "With attrs survive the chain")
	assert.Equal(t, "boom", logs[0].Attributes["error"], "errors are captured as strings")
}

func TestCapturingRunLoggerHook(t *testing.T) {
	collector := NewLogCollector()
	hook := NewCapturingRunLoggerHook(collector)

	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	runLogger := hook.LoggerForRun(base, "run-42")
	runLogger.Info("workflow run finished", "status", "succeeded")

	logs := collector.Logs("run-42")
	require.Len(t, logs, 1)
	assert.Equal(t, "workflow run finished", logs[0].Message)
	assert.Equal(t, "succeeded", logs[0].Attributes["status"])
}
