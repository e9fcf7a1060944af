package search

import (
	"fmt"
	"math"
)

// Hard safety envelope. Every parameter set that reaches the simulator from the
// trial loop lies inside these closed intervals.
const (
	MinVoltageKV = 15.0
	MaxVoltageKV = 40.0
	MinGapM      = 0.0005
	MaxGapM      = 0.006
	MinPhi       = 0.8
	MaxPhi       = 1.8
	MinStages    = 1
	MaxStages    = 6
)

// ParameterSet is one candidate operating point for the simulator.
// Values are copied into every Observation; a recorded set is never mutated.
type ParameterSet struct {
	VoltageKV float64 `json:"V_kV"`
	GapM      float64 `json:"gap_m"`
	Phi       float64 `json:"phi"`
	Stages    int     `json:"stages"`
	Note      string  `json:"note,omitempty"`
}

// DefaultParameters is the centre-of-envelope seed used when nothing else is known.
func DefaultParameters() ParameterSet {
	return ParameterSet{VoltageKV: 30, GapM: 0.002, Phi: 1.2, Stages: 3}
}

// VoltageV returns the voltage in volts, the unit the simulator consumes.
func (p ParameterSet) VoltageV() float64 {
	return p.VoltageKV * 1000.0
}

// String renders the four canonical fields for logs.
func (p ParameterSet) String() string {
	return fmt.Sprintf("{V_kV:%.4g gap_m:%.4g phi:%.4g stages:%d}", p.VoltageKV, p.GapM, p.Phi, p.Stages)
}

// Clamp forces p into the safety envelope with saturating min/max.
// It never fails, keeps Note, and is idempotent. NaN fields map to their lower bound.
func Clamp(p ParameterSet) ParameterSet {
	return ParameterSet{
		VoltageKV: clampFloat(p.VoltageKV, MinVoltageKV, MaxVoltageKV),
		GapM:      clampFloat(p.GapM, MinGapM, MaxGapM),
		Phi:       clampFloat(p.Phi, MinPhi, MaxPhi),
		Stages:    min(MaxStages, max(MinStages, p.Stages)),
		Note:      p.Note,
	}
}

// StagesFromFloat truncates a stage count that arrived as a JSON number and
// saturates it to the envelope. Clamping happens on the float so that huge or
// non-finite inputs never reach an int conversion.
func StagesFromFloat(f float64) int {
	return int(math.Trunc(clampFloat(f, MinStages, MaxStages)))
}

// InEnvelope reports whether p already satisfies every bound.
func InEnvelope(p ParameterSet) bool {
	return p.VoltageKV >= MinVoltageKV && p.VoltageKV <= MaxVoltageKV &&
		p.GapM >= MinGapM && p.GapM <= MaxGapM &&
		p.Phi >= MinPhi && p.Phi <= MaxPhi &&
		p.Stages >= MinStages && p.Stages <= MaxStages
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
