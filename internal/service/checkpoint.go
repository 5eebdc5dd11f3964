package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bioforge/edamatch-go/internal/models"
)

const manifestFile = "run.json"

// CheckpointStore persists the run manifest and one result file per
// completed batch under a single directory. Single-writer: the runner is
// the only component that mutates it.
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore creates the store directory if needed.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &CheckpointStore{dir: dir}, nil
}

// Dir returns the checkpoint directory.
func (s *CheckpointStore) Dir() string {
	return s.dir
}

// LoadState reads the persisted run manifest. Returns (nil, nil) when no
// manifest exists yet.
func (s *CheckpointStore) LoadState() (*models.RunState, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read run manifest: %w", err)
	}
	var state models.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse run manifest: %w", err)
	}
	return &state, nil
}

// SaveState writes the manifest atomically (temp file + rename) so a crash
// mid-write never leaves a corrupt manifest behind.
func (s *CheckpointStore) SaveState(state *models.RunState) error {
	return s.writeJSON(manifestFile, state)
}

// WriteBatch persists one completed batch's ordered results and returns
// the file name recorded in the manifest.
func (s *CheckpointStore) WriteBatch(index int, results []models.PackageMatch) (string, error) {
	name := fmt.Sprintf("batch_%04d.json", index)
	if err := s.writeJSON(name, results); err != nil {
		return "", err
	}
	return name, nil
}

// ReadBatch loads a previously persisted batch result slice.
func (s *CheckpointStore) ReadBatch(name string) ([]models.PackageMatch, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read batch file %s: %w", name, err)
	}
	var results []models.PackageMatch
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", name, err)
	}
	return results, nil
}

func (s *CheckpointStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// WriteReport serializes the aggregated, order-preserving result list.
func WriteReport(path string, results []models.PackageMatch) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
