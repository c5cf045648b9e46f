package logging

import "log/slog"

// RunLoggerHook creates run-specific loggers by wrapping a base logger.
// The orchestrator stays generic: supplying a hook is how callers opt in to
// per-run log capture.
type RunLoggerHook interface {
	// LoggerForRun wraps the base logger to create a run-specific logger.
	LoggerForRun(base *slog.Logger, runID string) *slog.Logger
}

// CapturingRunLoggerHook creates loggers that capture every engine log line
// for a run into a LogCollector.
type CapturingRunLoggerHook struct {
	collector *LogCollector
}

// NewCapturingRunLoggerHook creates a hook backed by the given collector.
func NewCapturingRunLoggerHook(collector *LogCollector) *CapturingRunLoggerHook {
	return &CapturingRunLoggerHook{collector: collector}
}

// LoggerForRun wraps the base logger with a CapturingHandler tagged with the
// run ID.
func (h *CapturingRunLoggerHook) LoggerForRun(base *slog.Logger, runID string) *slog.Logger {
	return slog.New(NewCapturingHandler(base.Handler(), h.collector, runID))
}
