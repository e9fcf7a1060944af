package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSampler(s Sampler, dims []Dimension, n int, f func([]float64) float64) (best []float64, bestVal float64) {
	bestVal = math.Inf(-1)
	for i := 0; i < n; i++ {
		v := s.Suggest(i, dims)
		val := f(v)
		s.Tell(TrialRecord{Number: i, State: TrialComplete, Values: v, Value: val})
		if val > bestVal {
			best, bestVal = v, val
		}
	}
	return best, bestVal
}

func TestTPESampler_SuggestionsWithinBounds(t *testing.T) {
	s := NewTPESampler(42, TPEConfig{StartupTrials: 5})
	space := DefaultSearchSpace()
	dims := space.Dimensions()
	for i := 0; i < 40; i++ {
		v := s.Suggest(i, dims)
		for k, d := range dims {
			assert.GreaterOrEqual(t, v[k], d.Low)
			assert.LessOrEqual(t, v[k], d.High)
			if d.Integer {
				assert.Equal(t, math.Round(v[k]), v[k])
			}
		}
		s.Tell(TrialRecord{Number: i, State: TrialComplete, Values: v, Value: -v[1]})
	}
}

func TestTPESampler_SameSeedSameSuggestions(t *testing.T) {
	dims := DefaultSearchSpace().Dimensions()
	f := func(v []float64) float64 { return v[1] - 100*v[0] }
	a, _ := runSampler(NewTPESampler(7, TPEConfig{}), dims, 25, f)
	b, _ := runSampler(NewTPESampler(7, TPEConfig{}), dims, 25, f)
	assert.Equal(t, a, b)
}

func TestTPESampler_FindsOptimumOfSmoothFunction(t *testing.T) {
	// GIVEN a 1-D objective peaked at x=0.8
	dims := []Dimension{{Name: "x", Low: 0, High: 1}}
	f := func(v []float64) float64 { return -(v[0] - 0.8) * (v[0] - 0.8) }

	// WHEN the sampler runs 60 trials
	best, _ := runSampler(NewTPESampler(1, TPEConfig{}), dims, 60, f)

	// THEN the best point is near the peak
	assert.InDelta(t, 0.8, best[0], 0.08)
}

func TestTPESampler_PrunedTrialsIgnored(t *testing.T) {
	s := NewTPESampler(3, TPEConfig{})
	s.Tell(TrialRecord{State: TrialPruned, Values: []float64{0.1}})
	assert.Empty(t, s.observed)
}

func TestTPESampler_DegenerateDimension(t *testing.T) {
	s := NewTPESampler(3, TPEConfig{StartupTrials: 1})
	dims := []Dimension{{Name: "stages", Low: 3, High: 3, Integer: true}}
	for i := 0; i < 5; i++ {
		v := s.Suggest(i, dims)
		assert.Equal(t, []float64{3}, v)
		s.Tell(TrialRecord{Number: i, State: TrialComplete, Values: v, Value: float64(i)})
	}
}

func TestDimensionRNG_IsolatedStreams(t *testing.T) {
	a := newDimensionRNG(5)
	b := newDimensionRNG(5)
	_ = b.forDimension("phi").Float64() // drawing from another stream...
	assert.Equal(t, a.forDimension("gap").Float64(), b.forDimension("gap").Float64())
	assert.Same(t, a.forDimension("gap"), a.forDimension("gap"))
}

func TestTPESampler_IntegerDimensionUniformOverEndpoints(t *testing.T) {
	// GIVEN an integer dimension 1..6 sampled only during start-up
	dims := []Dimension{{Name: DimStages, Low: 1, High: 6, Integer: true}}
	s := NewTPESampler(3, TPEConfig{StartupTrials: 1})
	counts := map[float64]int{}

	// WHEN many points are drawn without telling the sampler anything
	const draws = 6000
	for i := 0; i < draws; i++ {
		counts[s.Suggest(i, dims)[0]]++
	}

	// THEN every integer, endpoints included, gets about a sixth of the draws
	require.Len(t, counts, 6)
	for v := 1.0; v <= 6; v++ {
		assert.InDelta(t, draws/6, counts[v], 150, "value %v", v)
	}
}
