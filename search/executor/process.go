// Package executor runs the SSEP simulator for a parameter set, either as an
// external process or through a deterministic analytic mock.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssep-lab/ssep-search/search"
)

// DefaultTimeout bounds a single simulator invocation.
const DefaultTimeout = 300 * time.Second

// waitDelay bounds how long Wait blocks on inherited output pipes after the
// simulator is killed.
const waitDelay = 2 * time.Second

// ProcessExecutor invokes the simulator binary as
//
//	<Path> --pcd <geometry> --cfg <config.json> --out <result.json>
//
// The config carries voltage in volts. The result is read from the --out file,
// or from stdout when the simulator prints a JSON object instead.
type ProcessExecutor struct {
	Path    string
	Timeout time.Duration
	WorkDir string // parent of per-trial temp dirs; empty uses os.TempDir
}

// NewProcessExecutor creates a ProcessExecutor for the binary at path.
func NewProcessExecutor(path string, timeout time.Duration) *ProcessExecutor {
	return &ProcessExecutor{Path: path, Timeout: timeout}
}

// simConfig is the file format the simulator reads via --cfg.
type simConfig struct {
	V      float64 `json:"V"`
	Gap    float64 `json:"gap"`
	Phi    float64 `json:"phi"`
	Stages int     `json:"stages"`
}

// Evaluate implements search.Executor. All failures are *search.SimulationError.
func (e *ProcessExecutor) Evaluate(ctx context.Context, params search.ParameterSet, geometryPath string) (search.Metrics, error) {
	if _, err := os.Stat(e.Path); err != nil {
		return search.Metrics{}, &search.SimulationError{Op: "start", Err: fmt.Errorf("simulator not found: %s: %w", e.Path, err)}
	}

	dir, err := os.MkdirTemp(e.WorkDir, "ssep-trial-*")
	if err != nil {
		return search.Metrics{}, &search.SimulationError{Op: "start", Err: fmt.Errorf("creating trial dir: %w", err)}
	}
	defer func() { _ = os.RemoveAll(dir) }()

	cfgPath := filepath.Join(dir, "config.json")
	resultPath := filepath.Join(dir, "result.json")
	if err := writeConfig(cfgPath, params); err != nil {
		return search.Metrics{}, &search.SimulationError{Op: "start", Err: err}
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.Path, "--pcd", geometryPath, "--cfg", cfgPath, "--out", resultPath)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logrus.Debugf("running simulator: %s", cmd.String())
	runErr := cmd.Run()

	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			runErr = ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			runErr = fmt.Errorf("%w after %v", search.ErrTimeout, timeout)
		case errors.As(runErr, &exitErr):
			runErr = fmt.Errorf("simulator failed (exit %d): %w", exitErr.ExitCode(), runErr)
		}
		return search.Metrics{}, &search.SimulationError{Op: "run", Stdout: stdout.String(), Stderr: stderr.String(), Err: runErr}
	}

	data, err := os.ReadFile(resultPath)
	if errors.Is(err, os.ErrNotExist) {
		out := bytes.TrimSpace(stdout.Bytes())
		if !bytes.HasPrefix(out, []byte("{")) {
			return search.Metrics{}, &search.SimulationError{
				Op: "result", Stdout: stdout.String(), Stderr: stderr.String(),
				Err: fmt.Errorf("result file not found: %s", resultPath),
			}
		}
		data, err = out, nil
	}
	if err != nil {
		return search.Metrics{}, &search.SimulationError{Op: "result", Err: fmt.Errorf("reading result: %w", err)}
	}

	metrics, err := search.ParseMetrics(data)
	if err != nil {
		return search.Metrics{}, &search.SimulationError{Op: "result", Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	}
	return metrics, nil
}

func writeConfig(path string, p search.ParameterSet) error {
	data, err := json.Marshal(simConfig{V: p.VoltageV(), Gap: p.GapM, Phi: p.Phi, Stages: p.Stages})
	if err != nil {
		return fmt.Errorf("marshaling simulator config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing simulator config: %w", err)
	}
	return nil
}
