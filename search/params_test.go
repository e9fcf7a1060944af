package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp_OutputAlwaysInEnvelope(t *testing.T) {
	inputs := []ParameterSet{
		{VoltageKV: 0, GapM: 0, Phi: 0, Stages: 0},
		{VoltageKV: -100, GapM: -1, Phi: -3, Stages: -7},
		{VoltageKV: 1e9, GapM: 1e9, Phi: 1e9, Stages: math.MaxInt},
		{VoltageKV: math.Inf(1), GapM: math.Inf(-1), Phi: math.NaN(), Stages: math.MinInt},
		{VoltageKV: 30, GapM: 0.002, Phi: 1.2, Stages: 3},
		{VoltageKV: 15, GapM: 0.0005, Phi: 0.8, Stages: 1},
		{VoltageKV: 40, GapM: 0.006, Phi: 1.8, Stages: 6},
	}
	for _, in := range inputs {
		got := Clamp(in)
		assert.True(t, InEnvelope(got), "Clamp(%v) = %v is out of envelope", in, got)
	}
}

func TestClamp_Idempotent(t *testing.T) {
	inputs := []ParameterSet{
		{VoltageKV: 12, GapM: 0.01, Phi: 2.5, Stages: 9, Note: "keep"},
		{VoltageKV: 33.3, GapM: 0.0011, Phi: 1.01, Stages: 2},
		{VoltageKV: math.NaN(), GapM: math.NaN(), Phi: math.NaN(), Stages: 0},
	}
	for _, in := range inputs {
		once := Clamp(in)
		assert.Equal(t, once, Clamp(once))
	}
}

func TestClamp_InRangeValuesUnchanged(t *testing.T) {
	in := ParameterSet{VoltageKV: 35, GapM: 0.0012, Phi: 1.2, Stages: 3, Note: "reason"}
	assert.Equal(t, in, Clamp(in))
}

func TestClamp_SaturatesEachField(t *testing.T) {
	got := Clamp(ParameterSet{VoltageKV: 50, GapM: 0.0001, Phi: 2.0, Stages: 0})
	assert.Equal(t, ParameterSet{VoltageKV: MaxVoltageKV, GapM: MinGapM, Phi: MaxPhi, Stages: MinStages}, got)
}

func TestStagesFromFloat_TruncatesThenClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{3.0, 3},
		{3.9, 3},
		{0.4, 1},
		{-2, 1},
		{6.7, 6},
		{1e300, 6},
		{math.Inf(-1), 1},
		{math.NaN(), 1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StagesFromFloat(tc.in), "StagesFromFloat(%v)", tc.in)
	}
}

func TestParameterSet_VoltageV(t *testing.T) {
	assert.InDelta(t, 30000.0, DefaultParameters().VoltageV(), 1e-9)
}
