package executor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ssep-lab/ssep-search/search"
)

// argParser extracts --pcd/--cfg/--out into shell variables.
const argParser = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --pcd) pcd="$2"; shift 2 ;;
    --cfg) cfg="$2"; shift 2 ;;
    --out) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
`

// writeSimulator writes an executable shell script and returns its path.
func writeSimulator(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script simulators are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "sim.sh")
	require.NoError(t, os.WriteFile(path, []byte(argParser+body), 0o755))
	return path
}

func TestProcessExecutor_ResultFile(t *testing.T) {
	// GIVEN a simulator that copies its config aside and writes a result file
	seen := filepath.Join(t.TempDir(), "seen.json")
	sim := writeSimulator(t, `cp "$cfg" "`+seen+`"
printf '%s' "$pcd" > "`+seen+`.pcd"
printf '{"thrust_density": 2.5, "current_density": 0.5, "power": 12}' > "$out"
`)
	e := NewProcessExecutor(sim, 10*time.Second)

	// WHEN evaluated
	m, err := e.Evaluate(context.Background(), search.ParameterSet{VoltageKV: 30, GapM: 0.002, Phi: 1.2, Stages: 3}, "/tmp/geom.pcd")

	// THEN metrics come from the result file and the config carries volts
	require.NoError(t, err)
	assert.Equal(t, search.Metrics{ThrustDensity: 2.5, CurrentDensity: 0.5, Power: 12}, m)

	data, err := os.ReadFile(seen)
	require.NoError(t, err)
	var cfg map[string]float64
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, map[string]float64{"V": 30000, "gap": 0.002, "phi": 1.2, "stages": 3}, cfg)

	pcd, err := os.ReadFile(seen + ".pcd")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/geom.pcd", string(pcd))
}

func TestProcessExecutor_StdoutFallback(t *testing.T) {
	sim := writeSimulator(t, `echo '  {"thrust_density": 1, "current_density": 2, "power": 3}'
`)
	m, err := NewProcessExecutor(sim, 10*time.Second).Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")
	require.NoError(t, err)
	assert.Equal(t, search.Metrics{ThrustDensity: 1, CurrentDensity: 2, Power: 3}, m)
}

func TestProcessExecutor_NoResult(t *testing.T) {
	sim := writeSimulator(t, `echo "done, no json"
`)
	_, err := NewProcessExecutor(sim, 10*time.Second).Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")
	var simErr *search.SimulationError
	require.True(t, errors.As(err, &simErr), "got %v", err)
	assert.Equal(t, "result", simErr.Op)
	assert.Contains(t, simErr.Stdout, "done, no json")
}

func TestProcessExecutor_NonZeroExit_CapturesOutput(t *testing.T) {
	sim := writeSimulator(t, `echo "partial" ; echo "mesh error" 1>&2 ; exit 3
`)
	_, err := NewProcessExecutor(sim, 10*time.Second).Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")
	var simErr *search.SimulationError
	require.True(t, errors.As(err, &simErr), "got %v", err)
	assert.Equal(t, "run", simErr.Op)
	assert.Contains(t, simErr.Stdout, "partial")
	assert.Contains(t, simErr.Stderr, "mesh error")
	assert.Contains(t, err.Error(), "exit 3")
}

func TestProcessExecutor_MissingMetricKey_IsValidationFailure(t *testing.T) {
	sim := writeSimulator(t, `printf '{"thrust_density": 2.5, "power": 12}' > "$out"
`)
	_, err := NewProcessExecutor(sim, 10*time.Second).Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")
	var simErr *search.SimulationError
	require.True(t, errors.As(err, &simErr))
	var vErr *search.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "current_density", vErr.Key)
}

func TestProcessExecutor_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	// GIVEN a simulator that hangs past the bound
	sim := writeSimulator(t, `exec sleep 30
`)
	e := NewProcessExecutor(sim, 200*time.Millisecond)

	// WHEN evaluated
	start := time.Now()
	_, err := e.Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")

	// THEN it fails promptly with a timeout SimulationError
	var simErr *search.SimulationError
	require.True(t, errors.As(err, &simErr), "got %v", err)
	assert.ErrorIs(t, err, search.ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestProcessExecutor_MissingBinary(t *testing.T) {
	e := NewProcessExecutor(filepath.Join(t.TempDir(), "nope.exe"), time.Second)
	_, err := e.Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")
	var simErr *search.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, "start", simErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessExecutor_RemovesTrialDir(t *testing.T) {
	work := t.TempDir()
	sim := writeSimulator(t, `printf '{"thrust_density": 1, "current_density": 1, "power": 1}' > "$out"
`)
	e := &ProcessExecutor{Path: sim, Timeout: 10 * time.Second, WorkDir: work}
	_, err := e.Evaluate(context.Background(), search.DefaultParameters(), "g.pcd")
	require.NoError(t, err)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
