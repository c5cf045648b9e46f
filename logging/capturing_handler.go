package logging

import (
	"context"
	"log/slog"
)

// CapturingHandler wraps an slog.Handler to capture log records into a
// LogCollector while passing them through. The orchestrator uses it, via
// RunLoggerHook, to retain the engine's log lines for each workflow run.
type CapturingHandler struct {
	underlying slog.Handler
	collector  *LogCollector
	runID      string
	attrs      []slog.Attr
}

// NewCapturingHandler creates a handler that captures records for the given
// run while forwarding them to the underlying handler.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, runID string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		runID:      runID,
	}
}

// Enabled always returns true so every level is captured; the underlying
// handler still applies its own level filter for output in Handle.
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle captures the record and passes it through.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = resolveValue(a.Value)
		return true
	})

	h.collector.Add(h.runID, entry)

	if h.underlying.Enabled(ctx, r.Level) {
		return h.underlying.Handle(ctx, r)
	}
	return nil
}

// WithAttrs must return a CapturingHandler so capture survives .With chains.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &CapturingHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		runID:      h.runID,
		attrs:      newAttrs,
	}
}

// WithGroup must return a CapturingHandler so capture survives .With chains.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	return &CapturingHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		runID:      h.runID,
		attrs:      h.attrs,
	}
}

// resolveValue converts a slog.Value into a JSON-serializable value.
func resolveValue(v slog.Value) any {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindAny:
		val := v.Any()
		if err, ok := val.(error); ok {
			return err.Error()
		}
		return val
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]any, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		return v.Any()
	}
}
