package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nomis52/goflow/engine"
)

// DiskStore persists workflow definitions to disk as JSON files, one file
// per definition named <id>.json.
type DiskStore struct {
	dir    string
	logger *slog.Logger
}

// NewDiskStore creates a disk-backed store rooted at dir.
// The directory is created if it doesn't exist.
func NewDiskStore(dir string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workflow directory: %w", err)
	}
	return &DiskStore{dir: dir, logger: logger}, nil
}

// Load reads every definition file in the directory. Files that fail to
// parse are skipped with a warning so one corrupt record doesn't block
// startup.
func (s *DiskStore) Load() ([]engine.WorkflowDefinition, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading workflow directory: %w", err)
	}

	var defs []engine.WorkflowDefinition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read workflow file", "path", path, "error", err)
			continue
		}

		var def engine.WorkflowDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			s.logger.Warn("failed to parse workflow file", "path", path, "error", err)
			continue
		}
		defs = append(defs, def)
	}

	s.logger.Debug("loaded workflow definitions", "count", len(defs))
	return defs, nil
}

// Save writes a definition to <id>.json, replacing any previous version.
func (s *DiskStore) Save(def engine.WorkflowDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("cannot save workflow without ID")
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling workflow %s: %w", def.ID, err)
	}

	path := s.path(def.ID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing workflow file: %w", err)
	}

	s.logger.Debug("saved workflow definition", "path", path)
	return nil
}

// Delete removes a definition file. A missing file is not an error.
func (s *DiskStore) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting workflow file: %w", err)
	}
	return nil
}

// path maps a workflow ID to its file, replacing path separators so IDs
// cannot escape the store directory.
func (s *DiskStore) path(id string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(id)
	return filepath.Join(s.dir, safe+".json")
}
