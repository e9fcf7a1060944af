package optimizer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ssep-lab/ssep-search/search"
)

// TrialLogFileName is the default name of the study's trial log.
const TrialLogFileName = "history.csv"

// CSV column headers of the trial log.
var trialLogColumns = []string{
	"trial", "gap", "phi", "stages", "V_kV",
	"thrust_density", "current_density", "power", "pcd_path",
}

// TrialLog is an append-only CSV log with one row per evaluated trial.
// Each Append opens, writes and closes the file, so a row is durable as soon
// as Append returns and an interrupted study leaves a readable log behind.
type TrialLog struct {
	path string
}

// NewTrialLog creates a TrialLog at path. Nothing is written until the first Append.
func NewTrialLog(path string) *TrialLog {
	return &TrialLog{path: path}
}

// Path returns the log file location.
func (l *TrialLog) Path() string { return l.path }

// Append writes one row, writing the header first if the file is empty.
func (l *TrialLog) Append(rec TrialRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating trial log dir: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening trial log: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat trial log: %w", err)
	}
	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(trialLogColumns); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
	}
	p, m := rec.Params, rec.Metrics
	row := []string{
		strconv.Itoa(rec.Number),
		formatFloat(p.GapM),
		formatFloat(p.Phi),
		strconv.Itoa(p.Stages),
		formatFloat(p.VoltageKV),
		formatFloat(m.ThrustDensity),
		formatFloat(m.CurrentDensity),
		formatFloat(m.Power),
		rec.GeometryPath,
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("writing CSV row %d: %w", rec.Number, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing CSV row %d: %w", rec.Number, err)
	}
	return file.Sync()
}

// LoadTrialLog reads a trial log back. A missing file yields no records.
func LoadTrialLog(path string) ([]TrialRecord, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening trial log: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	// Skip header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var records []TrialRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		rec, err := parseTrialRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func parseTrialRow(row []string) (*TrialRecord, error) {
	if len(row) != len(trialLogColumns) {
		return nil, fmt.Errorf("CSV row has %d columns, expected %d", len(row), len(trialLogColumns))
	}
	ints := make([]int, 2)
	for i, idx := range []int{0, 3} {
		v, err := strconv.Atoi(row[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", trialLogColumns[idx], err)
		}
		ints[i] = v
	}
	floatIdx := []int{1, 2, 4, 5, 6, 7}
	fs := make([]float64, len(floatIdx))
	for i, idx := range floatIdx {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", trialLogColumns[idx], err)
		}
		fs[i] = v
	}
	return &TrialRecord{
		Number: ints[0],
		State:  TrialComplete,
		Params: search.ParameterSet{GapM: fs[0], Phi: fs[1], Stages: ints[1], VoltageKV: fs[2]},
		Metrics: search.Metrics{
			ThrustDensity:  fs[3],
			CurrentDensity: fs[4],
			Power:          fs[5],
		},
		GeometryPath: row[8],
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
