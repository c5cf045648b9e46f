package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nomis52/goflow/engine"
)

// DiskStore persists run records to disk as JSON files, one file per run,
// and keeps a bounded in-memory copy for queries.
type DiskStore struct {
	dir     string
	logger  *slog.Logger
	maxRuns int

	mu   sync.Mutex
	runs []engine.RunRecord // most recent first
}

// NewDiskStore creates a disk-backed history rooted at dir.
// The directory is created if it doesn't exist, and existing records are
// loaded.
func NewDiskStore(dir string, maxRuns int, logger *slog.Logger) (*DiskStore, error) {
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}

	s := &DiskStore{
		dir:     dir,
		logger:  logger,
		maxRuns: maxRuns,
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	runs, err := s.load()
	if err != nil {
		logger.Warn("failed to load existing run history", "error", err)
		// Continue without existing data
	} else {
		s.runs = runs
	}

	return s, nil
}

// Append writes a run record to disk and updates the in-memory copy.
func (s *DiskStore) Append(rec engine.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}

	// Timestamp plus run ID keeps filenames unique and sorted by start time.
	filename := rec.StartedAt.Format("2006-01-02T15-04-05") + "_" + rec.RunID + ".json"
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run record: %w", err)
	}

	s.runs = append([]engine.RunRecord{rec}, s.runs...)
	if len(s.runs) > s.maxRuns {
		s.runs = s.runs[:s.maxRuns]
	}

	s.logger.Debug("saved run record", "path", path)
	return nil
}

// Runs returns stored records, most recent first.
func (s *DiskStore) Runs() ([]engine.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]engine.RunRecord, len(s.runs))
	copy(out, s.runs)
	return out, nil
}

// load reads existing run files, most recent first.
func (s *DiskStore) load() ([]engine.RunRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	var runs []engine.RunRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read run record", "path", path, "error", err)
			continue
		}

		var rec engine.RunRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("failed to parse run record", "path", path, "error", err)
			continue
		}
		runs = append(runs, rec)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > s.maxRuns {
		runs = runs[:s.maxRuns]
	}
	return runs, nil
}
