package logging

import (
	"sync"
	"time"
)

// LogEntry represents a single log record with structured data.
type LogEntry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"` // "debug", "info", "warn", "error"
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes"`
}

// LogCollector provides thread-safe storage for per-run engine logs.
type LogCollector struct {
	mu   sync.RWMutex
	logs map[string][]LogEntry // run ID -> log entries
}

// NewLogCollector creates a new LogCollector.
func NewLogCollector() *LogCollector {
	return &LogCollector{
		logs: make(map[string][]LogEntry),
	}
}

// Add appends a log entry for the given run.
func (c *LogCollector) Add(runID string, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs[runID] = append(c.logs[runID], entry)
}

// Logs returns a copy of all entries recorded for a run.
func (c *LogCollector) Logs(runID string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, exists := c.logs[runID]
	if !exists {
		return nil
	}
	out := make([]LogEntry, len(logs))
	copy(out, logs)
	return out
}

// Drop discards the entries for a run, typically after its record has been
// persisted.
func (c *LogCollector) Drop(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.logs, runID)
}
