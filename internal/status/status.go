// Package status is the status-aggregator collaborator: the latest
// compliance score, risk level, and violation count written to a small JSON
// file for external display. The core feeds it after each cycle and never
// blocks on it.
package status

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/railguard/railguard/internal/enforce"
)

// Writer persists the most recent snapshot, last-writer-wins.
type Writer struct {
	path string
}

// NewWriter targets the given status file.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Update replaces the status file atomically so readers never see a torn
// snapshot.
func (w *Writer) Update(snap enforce.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := w.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(w.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, w.path)
}

// Read loads the latest snapshot, or nil when none has been written yet.
func Read(path string) (*enforce.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var snap enforce.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
