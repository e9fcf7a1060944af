package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/ssep-lab/ssep-search/search/trace"
)

// Executor runs the simulator for one parameter set.
// Any returned error is treated as a *SimulationError and aborts the run.
type Executor interface {
	Evaluate(ctx context.Context, params ParameterSet, geometryPath string) (Metrics, error)
}

// GeometryProvider returns the geometry artifact for a parameter set.
// Identical parameter sets must map to the same, already generated artifact.
type GeometryProvider interface {
	Provide(params ParameterSet) (string, error)
}

// DefaultLoopOutputDir is where a trial loop run writes summary.json by default.
const DefaultLoopOutputDir = "runs/latest_gpt"

// LoopConfig configures a TrialLoop run.
type LoopConfig struct {
	Trials    int
	OutputDir string // summary.json is written here; empty disables persistence
}

// TrialLoop drives the propose → evaluate → record → track-best cycle.
// It is single-threaded: each trial completes before the next begins.
// The history is append-only and the loop is its only writer.
type TrialLoop struct {
	cfg      LoopConfig
	executor Executor
	geometry GeometryProvider
	strategy ProposalStrategy

	history []Observation
	best    int // index into history, -1 before the first observation
	trace   *trace.ProposalTrace
}

// NewTrialLoop creates a TrialLoop over the given collaborators.
func NewTrialLoop(cfg LoopConfig, executor Executor, geometry GeometryProvider, strategy ProposalStrategy) *TrialLoop {
	return &TrialLoop{
		cfg:      cfg,
		executor: executor,
		geometry: geometry,
		strategy: strategy,
		best:     -1,
	}
}

// Run executes cfg.Trials trials starting from initial (sanitized first).
// A simulation failure aborts the run and no summary is written. Proposal
// failures fall back to BestNeighborhood and the run continues.
func (l *TrialLoop) Run(ctx context.Context, initial ParameterSet) (*Summary, error) {
	if l.cfg.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", l.cfg.Trials)
	}
	l.history = make([]Observation, 0, l.cfg.Trials)
	l.best = -1
	l.trace = trace.NewProposalTrace(l.strategy.Name())

	params := Clamp(initial)
	l.trace.Record(trace.ProposalRecord{Trial: 1, Source: trace.SourceSeed, Clamped: params != initial})

	for t := 0; t < l.cfg.Trials; t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("trial %d: %w", t+1, err)
		}
		metrics, err := l.evaluate(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("trial %d/%d: %w", t+1, l.cfg.Trials, err)
		}
		l.record(Observation{Params: params, Metrics: metrics})
		logrus.Infof("[%d/%d] params=%v -> thrust_density=%.3f", t+1, l.cfg.Trials, params, metrics.ThrustDensity)

		// No proposal is needed after the final trial.
		if t == l.cfg.Trials-1 {
			break
		}
		params = l.next(ctx, t+2)
	}

	summary := l.summarize()
	if l.cfg.OutputDir != "" {
		path, err := SaveSummary(summary, l.cfg.OutputDir)
		if err != nil {
			return summary, err
		}
		logrus.Infof("Saved: %s", path)
	}
	return summary, nil
}

// History returns a copy of the observations recorded so far.
func (l *TrialLoop) History() []Observation {
	return slices.Clone(l.history)
}

// Best returns the best observation so far and false if there is none.
func (l *TrialLoop) Best() (Observation, bool) {
	if l.best < 0 {
		return Observation{}, false
	}
	return l.history[l.best], true
}

func (l *TrialLoop) evaluate(ctx context.Context, params ParameterSet) (Metrics, error) {
	path, err := l.geometry.Provide(params)
	if err != nil {
		return Metrics{}, AsSimulationError("geometry", err)
	}
	metrics, err := l.executor.Evaluate(ctx, params, path)
	if err != nil {
		return Metrics{}, AsSimulationError("run", err)
	}
	return metrics, nil
}

// record appends obs and updates the best index. Ties keep the earlier trial.
func (l *TrialLoop) record(obs Observation) {
	l.history = append(l.history, obs)
	if l.best < 0 || obs.Metrics.ThrustDensity > l.history[l.best].Metrics.ThrustDensity {
		l.best = len(l.history) - 1
	}
}

// next asks the strategy for the parameters of the given (1-based) trial.
func (l *TrialLoop) next(ctx context.Context, trial int) ParameterSet {
	rec := trace.ProposalRecord{Trial: trial, Source: trace.SourceStrategy}
	proposal, err := l.strategy.Propose(ctx, slices.Clone(l.history))
	if err != nil {
		logrus.Warnf("%s propose failed, fallback: %v", l.strategy.Name(), err)
		proposal = BestNeighborhood(l.history[l.best].Params)
		rec.Source = trace.SourceFallback
		rec.Reason = err.Error()
	} else {
		rec.Reason = proposal.Note
	}
	sanitized := Clamp(proposal)
	rec.Clamped = sanitized != proposal
	if rec.Clamped {
		logrus.Debugf("proposal %v clamped to %v", proposal, sanitized)
	}
	l.trace.Record(rec)
	return sanitized
}

func (l *TrialLoop) summarize() *Summary {
	best := l.history[l.best]
	return &Summary{
		RunID:         newRunID(),
		Strategy:      l.strategy.Name(),
		Trials:        len(l.history),
		BestTrial:     l.best + 1,
		BestParams:    best.Params,
		BestMetrics:   best.Metrics,
		History:       slices.Clone(l.history),
		Proposals:     trace.Summarize(l.trace),
		ProposalTrace: slices.Clone(l.trace.Proposals),
	}
}
