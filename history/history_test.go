package history

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/goflow/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord(runID string, started time.Time) engine.RunRecord {
	ended := started.Add(45 * time.Second)
	taskStart := started.Add(time.Second)
	taskEnd := started.Add(40 * time.Second)
	return engine.RunRecord{
		RunID:      runID,
		WorkflowID: "etl",
		Status:     engine.RunSucceeded,
		StartedAt:  started,
		EndedAt:    ended,
		Tasks: []engine.TaskRecord{
			{
				TemplateID:  "extract",
				Type:        "shell",
				Status:      engine.StatusCompleted,
				StartedAt:   &taskStart,
				CompletedAt: &taskEnd,
			},
		},
	}
}

func TestMemoryStore_MostRecentFirst(t *testing.T) {
	s := NewMemoryStore(10)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(sampleRecord("r1", base)))
	require.NoError(t, s.Append(sampleRecord("r2", base.Add(time.Minute))))
	require.NoError(t, s.Append(sampleRecord("r3", base.Add(2*time.Minute))))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)
	assert.Equal(t, "r1", runs[2].RunID)
}

func TestMemoryStore_Bounded(t *testing.T) {
	s := NewMemoryStore(3)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(sampleRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3, "history keeps only the newest maxRuns records")
	assert.Equal(t, "r4", runs[0].RunID)
	assert.Equal(t, "r2", runs[2].RunID, "oldest records are evicted")
}

func TestDiskStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("r1", started)
	require.NoError(t, s.Append(rec))

	// A fresh store over the same directory sees the record.
	reopened, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	runs, err := reopened.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.WorkflowID, got.WorkflowID)
	assert.Equal(t, rec.Status, got.Status)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt), "timestamps must round-trip")
	assert.True(t, rec.EndedAt.Equal(got.EndedAt))
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "extract", got.Tasks[0].TemplateID)
	require.NotNil(t, got.Tasks[0].CompletedAt)
	assert.True(t, rec.Tasks[0].CompletedAt.Equal(*got.Tasks[0].CompletedAt))
}

func TestDiskStore_LoadSortsMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Append out of chronological order.
	require.NoError(t, s.Append(sampleRecord("r2", base.Add(time.Hour))))
	require.NoError(t, s.Append(sampleRecord("r1", base)))
	require.NoError(t, s.Append(sampleRecord("r3", base.Add(2*time.Hour))))

	reopened, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	runs, err := reopened.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)
	assert.Equal(t, "r1", runs[2].RunID)
}

func TestDiskStore_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleRecord("r1", time.Now())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0644))

	reopened, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	runs, err := reopened.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].RunID)
}

func TestDiskStore_BoundedOnLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, 10, testLogger())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(sampleRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	reopened, err := NewDiskStore(dir, 2, testLogger())
	require.NoError(t, err)

	runs, err := reopened.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2, "load applies the maxRuns bound")
	assert.Equal(t, "r4", runs[0].RunID)
	assert.Equal(t, "r3", runs[1].RunID)
}
