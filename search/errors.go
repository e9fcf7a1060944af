package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPruned signals that a trial was discarded before evaluation because it
// violated a feasibility constraint. It is not a failure.
var ErrPruned = errors.New("trial pruned")

// ErrTimeout is wrapped by a SimulationError when the simulator exceeded its time bound.
var ErrTimeout = errors.New("simulation timed out")

// SimulationError reports a failed simulator invocation. It is fatal to a run.
type SimulationError struct {
	Op     string // "start", "run", "result", "geometry"
	Stdout string
	Stderr string
	Err    error
}

func (e *SimulationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "simulation %s failed: %v", e.Op, e.Err)
	if s := strings.TrimSpace(e.Stdout); s != "" {
		fmt.Fprintf(&b, "\nSTDOUT:\n%s", s)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "\nSTDERR:\n%s", s)
	}
	return b.String()
}

func (e *SimulationError) Unwrap() error { return e.Err }

// ValidationError reports a simulator result that lacks a required metric.
type ValidationError struct {
	Key string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("result JSON missing key: %s", e.Key)
}

// ProposalError reports a proposal strategy failure. The trial loop recovers from it.
type ProposalError struct {
	Reason string
	Err    error
}

func (e *ProposalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proposal failed: %s: %v", e.Reason, e.Err)
	}
	return "proposal failed: " + e.Reason
}

func (e *ProposalError) Unwrap() error { return e.Err }

// AsSimulationError wraps err as a *SimulationError unless it already is one.
func AsSimulationError(op string, err error) error {
	if err == nil {
		return nil
	}
	var simErr *SimulationError
	if errors.As(err, &simErr) {
		return err
	}
	return &SimulationError{Op: op, Err: err}
}
