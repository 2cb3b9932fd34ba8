// Package report writes the outcome of an install run to a JSON file.
// The report is informational only; it is never read back to decide what
// to install.
package report

import (
	"encoding/json" // report file format
	"fmt"
	"os"
	"path/filepath"
	"time"

	"install-tool/internal/installer"
	"install-tool/internal/logger"
)

// Report summarizes one install run.
type Report struct {
	Program   string             `json:"program"`   // Program requested on the command line
	OS        string             `json:"os"`        // OS identifier used for resolution
	ExitCode  int                `json:"exit_code"` // Aggregate exit status of the run
	Error     string             `json:"error,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Records   []installer.Record `json:"records"` // One entry per processed program, in order
}

// Save writes r to path as indented JSON.
func Save(path string, r *Report) error {
	// Consumers iterate records; write [] rather than null.
	if r.Records == nil {
		r.Records = []installer.Record{}
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	logger.Debug("[DEBUG] Writing report to %s\n", path)

	// --report may point into a directory that does not exist yet.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	// Reports are plain run summaries, readable by anyone.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
