// Package device implements the operator-device side of the pipeline: the
// persisted active-error slot, the reconciler that merges the three
// delivery channels into it, and the simulated local alert scheduler.
package device

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ActiveError is the single-slot record of the most recently observed
// incident signal, independent of which channel delivered it. Only TS is
// always set.
type ActiveError struct {
	TS         int64  `json:"ts"` // unix milliseconds
	Title      string `json:"title,omitempty"`
	Body       string `json:"body,omitempty"`
	Restaurant string `json:"restaurant,omitempty"`
	Severity   string `json:"severity,omitempty"`
	IncidentID string `json:"incident_id,omitempty"`
}

// Slot is the persisted single-slot store backing the active error record.
// Writes are last-write-wins and atomic (temp file + rename), so readers
// never observe a torn record even when two channels race.
type Slot struct {
	path string
	mu   sync.Mutex
}

// NewSlot creates a slot persisted at path.
func NewSlot(path string) *Slot {
	return &Slot{path: path}
}

// Set overwrites the slot with the given record.
func (s *Slot) Set(record *ActiveError) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal active error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write active error: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace active error: %w", err)
	}
	return nil
}

// Get returns the current record, or nil when the slot is empty. A slot
// file that fails to parse is treated as empty rather than an error; the
// next write repairs it.
func (s *Slot) Get() *ActiveError {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var record ActiveError
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	return &record
}

// Clear empties the slot.
func (s *Slot) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear active error: %w", err)
	}
	return nil
}
