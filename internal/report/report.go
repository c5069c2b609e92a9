// Package report assembles per-site analysis results into the run report and
// persists it as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// Aggregate merges per-site results into a Report. Pure: no recomputation,
// no I/O. The result keys are exactly the site ids handed in; the generation
// timestamp comes from the injected domain clock.
func Aggregate(results map[string]domain.AnalysisResult, mode domain.SourceMode) domain.Report {
	merged := make(map[string]domain.AnalysisResult, len(results))
	for id, r := range results {
		merged[id] = r
	}
	return domain.Report{
		GeneratedAt: domain.Now(),
		SourceMode:  mode,
		Results:     merged,
	}
}

// FileWriter persists reports as indented JSON, one document per run.
type FileWriter struct {
	path string
}

// NewFileWriter creates a writer targeting path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write marshals and writes the report. A failure here is the one fatal error
// of a pipeline run: without a persisted report the run's purpose is unmet.
func (w *FileWriter) Write(rep domain.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", w.path, err)
	}
	return nil
}

// ReadFile parses a previously written report. Used by the validate command
// and round-trip tests.
func ReadFile(path string) (domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("read report: %w", err)
	}
	var rep domain.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return domain.Report{}, fmt.Errorf("parse report %s: %w", path, err)
	}
	return rep, nil
}
