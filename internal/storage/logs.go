package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LogStorage manages per-step output files, one directory per pipeline run.
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a new log storage handler
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// RunLogs is the log directory of one pipeline run. It implements
// core.StepLogs.
type RunLogs struct {
	Dir string
}

// OpenRun creates <base>/<pipeline>/<run> and returns a handle to it.
func (ls *LogStorage) OpenRun(pipelineID, runID string) (*RunLogs, error) {
	dir := filepath.Join(ls.BaseDir, sanitize(pipelineID), sanitize(runID))
	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, fmt.Errorf("creating run log dir: %w", err)
	}
	return &RunLogs{Dir: dir}, nil
}

// StepWriter creates the log file for one step, named after its position
// and sanitized name so that files sort in execution order.
func (rl *RunLogs) StepWriter(index int, step string) (io.WriteCloser, error) {
	path := filepath.Join(rl.Dir, fmt.Sprintf("%02d_%s.log", index, sanitize(step)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating step log: %w", err)
	}
	return f, nil
}

// sanitize removes special characters from step names for filenames
func sanitize(name string) string {
	clean := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return "step"
	}
	return string(clean)
}
