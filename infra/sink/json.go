// Package sink persists solved schedules. It is a result-sink collaborator:
// the core hands over a schedule value and never learns where it went.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kilianp07/railops/core/plan"
)

// JSONFile writes one schedule document per run into Dir.
type JSONFile struct {
	Dir string
}

// Write persists the schedule under a run-scoped file name and returns the
// path. An empty runID gets a fresh UUID so every solve leaves a distinct
// artifact.
func (s JSONFile) Write(runID string, sched *plan.Schedule) (string, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create sink dir: %w", err)
	}
	data, err := json.MarshalIndent(sched, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schedule: %w", err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("schedule_%s.json", runID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write schedule: %w", err)
	}
	return path, nil
}
