// Package optimizer runs a range-based black-box search over the simulator:
// a sampler suggests a point inside the declared bounds for every trial,
// infeasible points are pruned, and every evaluated trial is appended to a
// CSV log before its objective value is reported back to the sampler.
package optimizer

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ssep-lab/ssep-search/search"
)

// Objective names.
const (
	ObjectiveThrustDensity = "maximize_thrust_density"
	ObjectiveThrustPerWatt = "maximize_thrust_per_watt"
)

const (
	defaultTrialBudget      = 30
	gapMillimetresPerMeter  = 1000.0
	maxGapMM                = 6.0
	defaultPhiWhenUnbounded = 1.0
	defaultStagesUnbounded  = 3
)

var validObjectives = map[string]bool{
	"": true, ObjectiveThrustDensity: true, ObjectiveThrustPerWatt: true,
}

// SearchSpace declares what to optimize, over which ranges, with what budget.
// It is supplied once per run and not modified afterwards.
type SearchSpace struct {
	Objective string `json:"objective" yaml:"objective"`
	Bounds    Bounds `json:"search_space" yaml:"search_space"`
	Budget    Budget `json:"budget" yaml:"budget"`
}

// Bounds holds [low, high] pairs. Gap is declared in millimetres.
// Phi and Stages are optional; when absent they are pinned to 1.0 and 3.
type Bounds struct {
	GapMM     []float64 `json:"gap_mm" yaml:"gap_mm"`
	VoltageKV []float64 `json:"V_kV" yaml:"V_kV"`
	Phi       []float64 `json:"phi,omitempty" yaml:"phi,omitempty"`
	Stages    []int     `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// Budget is the trial budget. Trials run sequentially regardless of Parallel.
type Budget struct {
	Trials   int `json:"trials" yaml:"trials"`
	Parallel int `json:"parallel" yaml:"parallel"`
}

// DefaultSearchSpace is the space used when no translation is available.
func DefaultSearchSpace() SearchSpace {
	return SearchSpace{
		Objective: ObjectiveThrustDensity,
		Bounds: Bounds{
			GapMM:     []float64{0.8, 6.0},
			VoltageKV: []float64{15.0, 40.0},
			Phi:       []float64{0.8, 1.8},
			Stages:    []int{1, 6},
		},
		Budget: Budget{Trials: defaultTrialBudget, Parallel: 1},
	}
}

// LoadSearchSpace reads and validates a YAML search-space file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSearchSpace(path string) (*SearchSpace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading search space: %w", err)
	}
	var space SearchSpace
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&space); err != nil {
		return nil, fmt.Errorf("parsing search space: %w", err)
	}
	if err := space.Validate(); err != nil {
		return nil, err
	}
	return &space, nil
}

// Validate checks ranges against the safety envelope. The gap lower bound may
// reach below the envelope; such points are pruned by the feasibility check.
func (s *SearchSpace) Validate() error {
	if !validObjectives[s.Objective] {
		return fmt.Errorf("unknown objective %q; valid: %s, %s", s.Objective, ObjectiveThrustDensity, ObjectiveThrustPerWatt)
	}
	if err := validateRange("gap_mm", s.Bounds.GapMM, 0, maxGapMM); err != nil {
		return err
	}
	if s.Bounds.GapMM[0] <= 0 {
		return fmt.Errorf("gap_mm: low must be positive, got %g", s.Bounds.GapMM[0])
	}
	if err := validateRange("V_kV", s.Bounds.VoltageKV, search.MinVoltageKV, search.MaxVoltageKV); err != nil {
		return err
	}
	if s.Bounds.Phi != nil {
		if err := validateRange("phi", s.Bounds.Phi, search.MinPhi, search.MaxPhi); err != nil {
			return err
		}
	}
	if s.Bounds.Stages != nil {
		st := s.Bounds.Stages
		if len(st) != 2 {
			return fmt.Errorf("stages: want [low, high], got %d values", len(st))
		}
		if st[0] > st[1] || st[0] < search.MinStages || st[1] > search.MaxStages {
			return fmt.Errorf("stages: range [%d, %d] must be ordered and within [%d, %d]", st[0], st[1], search.MinStages, search.MaxStages)
		}
	}
	if s.Budget.Trials < 0 || s.Budget.Parallel < 0 {
		return fmt.Errorf("budget must be non-negative, got trials=%d parallel=%d", s.Budget.Trials, s.Budget.Parallel)
	}
	return nil
}

func validateRange(name string, r []float64, lo, hi float64) error {
	if len(r) != 2 {
		return fmt.Errorf("%s: want [low, high], got %d values", name, len(r))
	}
	for _, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: bounds must be finite, got %v", name, r)
		}
	}
	if r[0] > r[1] {
		return fmt.Errorf("%s: low %g exceeds high %g", name, r[0], r[1])
	}
	if r[0] < lo || r[1] > hi {
		return fmt.Errorf("%s: range [%g, %g] outside [%g, %g]", name, r[0], r[1], lo, hi)
	}
	return nil
}

// Dimension is one axis of the sampled space.
type Dimension struct {
	Name    string
	Low     float64
	High    float64
	Integer bool
}

// Dimension names, in sampling order.
const (
	DimGap     = "gap"
	DimVoltage = "V_kV"
	DimPhi     = "phi"
	DimStages  = "stages"
)

// Dimensions returns the sampled axes. Gap is converted to meters.
func (s SearchSpace) Dimensions() []Dimension {
	phi := []float64{defaultPhiWhenUnbounded, defaultPhiWhenUnbounded}
	if s.Bounds.Phi != nil {
		phi = s.Bounds.Phi
	}
	stages := []int{defaultStagesUnbounded, defaultStagesUnbounded}
	if s.Bounds.Stages != nil {
		stages = s.Bounds.Stages
	}
	return []Dimension{
		{Name: DimGap, Low: s.Bounds.GapMM[0] / gapMillimetresPerMeter, High: s.Bounds.GapMM[1] / gapMillimetresPerMeter},
		{Name: DimVoltage, Low: s.Bounds.VoltageKV[0], High: s.Bounds.VoltageKV[1]},
		{Name: DimPhi, Low: phi[0], High: phi[1]},
		{Name: DimStages, Low: float64(stages[0]), High: float64(stages[1]), Integer: true},
	}
}

// paramsFromValues maps a point in Dimensions() order to a ParameterSet.
func paramsFromValues(values []float64) search.ParameterSet {
	return search.ParameterSet{
		GapM:      values[0],
		VoltageKV: values[1],
		Phi:       values[2],
		Stages:    int(math.Round(values[3])),
	}
}

// Feasible is the post-suggestion constraint; failing it prunes the trial.
func Feasible(p search.ParameterSet) bool {
	return p.GapM >= search.MinGapM
}
