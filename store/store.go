// Package store provides workflow definition persistence.
//
// Two implementations of engine.WorkflowStore are provided: MemoryStore for
// tests and ephemeral deployments, and DiskStore which keeps one JSON file
// per definition and reloads them on startup. Round-trips preserve every
// definition field, including timestamps.
package store

import (
	"sync"

	"github.com/nomis52/goflow/engine"
)

// MemoryStore keeps workflow definitions in memory only (no persistence).
type MemoryStore struct {
	mu   sync.Mutex
	defs map[string]engine.WorkflowDefinition
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defs: make(map[string]engine.WorkflowDefinition),
	}
}

// Load returns all stored definitions.
func (s *MemoryStore) Load() ([]engine.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]engine.WorkflowDefinition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	return out, nil
}

// Save stores a definition, replacing any previous version.
func (s *MemoryStore) Save(def engine.WorkflowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.ID] = def
	return nil
}

// Delete removes a definition by ID.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, id)
	return nil
}
