package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ssep-lab/ssep-search/search/trace"
)

// SummaryFileName is the file a trial loop run persists its Summary to.
const SummaryFileName = "summary.json"

// Summary is the terminal artifact of a trial loop run.
type Summary struct {
	RunID         string                 `json:"run_id"`
	Strategy      string                 `json:"strategy"`
	Trials        int                    `json:"trials"`
	BestTrial     int                    `json:"best_trial"` // 1-based
	BestParams    ParameterSet           `json:"best_params"`
	BestMetrics   Metrics                `json:"best_metrics"`
	History       []Observation          `json:"history"`
	Proposals     *trace.Summary         `json:"proposals,omitempty"`
	ProposalTrace []trace.ProposalRecord `json:"proposal_trace,omitempty"`
}

// SaveSummary writes s as indented JSON to dir/summary.json and returns the path.
// The file is written to a temporary name and renamed, so a reader never sees
// a partially written summary.
func SaveSummary(s *Summary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	path := filepath.Join(dir, SummaryFileName)
	tmp, err := os.CreateTemp(dir, ".summary-*.json")
	if err != nil {
		return "", fmt.Errorf("creating summary file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing summary: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming summary: %w", err)
	}
	return path, nil
}

// LoadSummary reads a summary written by SaveSummary.
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing summary: %w", err)
	}
	return &s, nil
}

func newRunID() string {
	return uuid.NewString()
}
