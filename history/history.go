// Package history provides run history persistence.
//
// Implementations of engine.RunHistory: MemoryStore keeps a bounded list of
// recent runs in memory; DiskStore additionally writes one JSON file per
// run and reloads existing records on startup.
package history

import (
	"sync"

	"github.com/nomis52/goflow/engine"
)

const defaultMaxRuns = 100

// MemoryStore keeps run records in memory only, most recent first, bounded
// by maxRuns.
type MemoryStore struct {
	maxRuns int

	mu   sync.Mutex
	runs []engine.RunRecord
}

// NewMemoryStore creates an in-memory history bounded at maxRuns records.
// A non-positive maxRuns falls back to the default.
func NewMemoryStore(maxRuns int) *MemoryStore {
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}
	return &MemoryStore{maxRuns: maxRuns}
}

// Append stores a finished run record.
func (s *MemoryStore) Append(rec engine.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Prepend to keep most recent first
	s.runs = append([]engine.RunRecord{rec}, s.runs...)
	if len(s.runs) > s.maxRuns {
		s.runs = s.runs[:s.maxRuns]
	}
	return nil
}

// Runs returns stored records, most recent first.
func (s *MemoryStore) Runs() ([]engine.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]engine.RunRecord, len(s.runs))
	copy(out, s.runs)
	return out, nil
}
