package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetrics_AllKeysPresent(t *testing.T) {
	m, err := ParseMetrics([]byte(`{"thrust_density": 1.5, "current_density": 0.2, "power": 10, "extra": "ok"}`))
	require.NoError(t, err)
	assert.Equal(t, Metrics{ThrustDensity: 1.5, CurrentDensity: 0.2, Power: 10}, m)
}

func TestParseMetrics_MissingKey_ReturnsValidationError(t *testing.T) {
	_, err := ParseMetrics([]byte(`{"thrust_density": 1.5, "power": 10}`))
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	assert.Equal(t, "current_density", vErr.Key)
}

func TestParseMetrics_Malformed(t *testing.T) {
	_, err := ParseMetrics([]byte(`not json`))
	assert.Error(t, err)
}

func TestAsSimulationError_KeepsExisting(t *testing.T) {
	orig := &SimulationError{Op: "run", Err: ErrTimeout}
	assert.Same(t, orig, AsSimulationError("geometry", orig))

	wrapped := AsSimulationError("result", &ValidationError{Key: "power"})
	var simErr *SimulationError
	require.True(t, errors.As(wrapped, &simErr))
	assert.Equal(t, "result", simErr.Op)
	var vErr *ValidationError
	assert.True(t, errors.As(wrapped, &vErr))
}

func TestSimulationError_IncludesCapturedOutput(t *testing.T) {
	err := &SimulationError{Op: "run", Stdout: "out text", Stderr: "err text", Err: errors.New("exit status 2")}
	assert.Contains(t, err.Error(), "STDOUT:\nout text")
	assert.Contains(t, err.Error(), "STDERR:\nerr text")
}
