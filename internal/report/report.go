// Package report records the outcome of a run next to the dataset it produced.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"histbars/internal/pipeline"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run summarizes one ingestion.
type Run struct {
	ID         string                   `json:"run_id"`
	Provider   string                   `json:"provider"`
	Symbol     string                   `json:"symbol"`
	Timeframe  string                   `json:"timeframe"`
	Status     Status                   `json:"status"`
	ErrorKind  string                   `json:"error_kind,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Fetched    int                      `json:"fetched"`
	Rows       int                      `json:"rows"`
	Cutoff     time.Time                `json:"cutoff"`
	Partitions []pipeline.PartitionInfo `json:"partitions,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// New builds the summary from a pipeline result and error.
func New(id string, cfg pipeline.Config, res pipeline.Result, runErr error, started, finished time.Time) Run {
	r := Run{
		ID:         id,
		Provider:   cfg.Source,
		Symbol:     cfg.Symbol,
		Timeframe:  cfg.Timeframe,
		Status:     StatusSucceeded,
		Fetched:    res.Fetched,
		Rows:       res.Rows,
		Cutoff:     res.Cutoff,
		Partitions: res.Partitions,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
	}
	if runErr != nil {
		r.Status = StatusFailed
		r.ErrorKind = pipeline.KindOf(runErr).String()
		r.Error = runErr.Error()
	}
	return r
}

// Duration is the wall-clock time the run took.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Path returns <base>/.lastrun.<symbol>_<tf>.json for the layout.
func Path(layout pipeline.Layout) string {
	name := fmt.Sprintf(".lastrun.%s_%s.json", strings.ToLower(layout.Symbol), layout.Timeframe)
	return filepath.Join(layout.BaseDir(), name)
}

// Write stores r as indented JSON at path, creating parent directories.
func Write(path string, r Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	slog.Info("report wrote run", "path", path, "status", r.Status, "rows", r.Rows)
	return nil
}

// Read loads a report written by Write.
func Read(path string) (Run, error) {
	var r Run
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse report %s: %w", path, err)
	}
	if r.ID == "" {
		return r, errors.New("report has no run_id")
	}
	return r, nil
}
