package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ssep-lab/ssep-search/search"
)

// DefaultStudyDir is where a study writes its trial log and best parameters.
const DefaultStudyDir = "runs/latest"

// BestParamsFileName is written into the study dir after a study completes.
const BestParamsFileName = "best_params.json"

// ErrNoCompletedTrials is returned when every trial of a study was pruned.
var ErrNoCompletedTrials = errors.New("no trials completed")

// Study runs trials suggested by a Sampler against the simulator.
// Trials run one at a time.
type Study struct {
	space    SearchSpace
	dims     []Dimension
	sampler  Sampler
	executor search.Executor
	geometry search.GeometryProvider
	log      *TrialLog
}

// StudyResult summarises a finished study.
type StudyResult struct {
	StudyID     string              `json:"study_id"`
	Objective   string              `json:"objective"`
	BestTrial   int                 `json:"best_trial"`
	BestValue   float64             `json:"best_value"`
	BestParams  search.ParameterSet `json:"best_params"`
	BestMetrics search.Metrics      `json:"best_metrics"`
	Completed   int                 `json:"completed"`
	Pruned      int                 `json:"pruned"`
	Trials      []TrialRecord       `json:"-"`
}

// NewStudy creates a Study over space. The space is validated first, so a
// study never suggests points outside the safety envelope. log may be nil to
// skip logging.
func NewStudy(space SearchSpace, sampler Sampler, executor search.Executor, geometry search.GeometryProvider, log *TrialLog) (*Study, error) {
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search space: %w", err)
	}
	if space.Objective == "" {
		space.Objective = ObjectiveThrustDensity
	}
	if space.Budget.Parallel > 1 {
		logrus.Warnf("budget.parallel=%d requested; trials run sequentially", space.Budget.Parallel)
	}
	return &Study{
		space:    space,
		dims:     space.Dimensions(),
		sampler:  sampler,
		executor: executor,
		geometry: geometry,
		log:      log,
	}, nil
}

// Optimize runs n trials and returns the best completed one. Pruned trials
// count towards n but are never evaluated. A simulation failure aborts the study.
func (s *Study) Optimize(ctx context.Context, n int) (*StudyResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", n)
	}
	result := &StudyResult{StudyID: uuid.NewString(), Objective: s.space.Objective, BestTrial: -1}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
		values := s.sampler.Suggest(i, s.dims)
		rec := TrialRecord{Number: i, Values: values, Params: paramsFromValues(values)}

		err := s.objective(ctx, &rec)
		switch {
		case errors.Is(err, search.ErrPruned):
			rec.State = TrialPruned
			result.Pruned++
			logrus.Infof("trial %d pruned: params=%v", i, rec.Params)
		case err != nil:
			return nil, fmt.Errorf("trial %d: %w", i, err)
		default:
			rec.State = TrialComplete
			result.Completed++
			if result.BestTrial < 0 || rec.Value > result.BestValue {
				result.BestTrial = i
				result.BestValue = rec.Value
				result.BestParams = rec.Params
				result.BestMetrics = rec.Metrics
			}
			logrus.Infof("trial %d finished with value %.4g, params=%v; best is trial %d with value %.4g",
				i, rec.Value, rec.Params, result.BestTrial, result.BestValue)
		}
		s.sampler.Tell(rec)
		result.Trials = append(result.Trials, rec)
	}

	if result.Completed == 0 {
		return result, ErrNoCompletedTrials
	}
	return result, nil
}

// objective evaluates one trial. It returns search.ErrPruned for infeasible points.
func (s *Study) objective(ctx context.Context, rec *TrialRecord) error {
	if !Feasible(rec.Params) {
		return search.ErrPruned
	}
	path, err := s.geometry.Provide(rec.Params)
	if err != nil {
		return search.AsSimulationError("geometry", err)
	}
	metrics, err := s.executor.Evaluate(ctx, rec.Params, path)
	if err != nil {
		return search.AsSimulationError("run", err)
	}
	rec.GeometryPath = path
	rec.Metrics = metrics
	rec.Value = objectiveValue(s.space.Objective, metrics)

	if s.log != nil {
		if err := s.log.Append(*rec); err != nil {
			return err
		}
	}
	return nil
}

func objectiveValue(objective string, m search.Metrics) float64 {
	if objective == ObjectiveThrustPerWatt {
		if m.Power <= 0 {
			return 0
		}
		return m.ThrustDensity / m.Power
	}
	return m.ThrustDensity
}

// SaveBestParams writes the best parameters and value to dir/best_params.json.
func SaveBestParams(result *StudyResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating study dir: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling best params: %w", err)
	}
	path := filepath.Join(dir, BestParamsFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing best params: %w", err)
	}
	return path, nil
}
