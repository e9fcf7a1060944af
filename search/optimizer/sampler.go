package optimizer

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ssep-lab/ssep-search/search"
)

// TrialState is the outcome of a study trial.
type TrialState string

const (
	TrialComplete TrialState = "complete"
	TrialPruned   TrialState = "pruned"
)

// TrialRecord describes one study trial.
type TrialRecord struct {
	Number       int
	State        TrialState
	Values       []float64 // sampled point, Dimensions() order
	Params       search.ParameterSet
	Metrics      search.Metrics
	Value        float64 // objective value; zero for pruned trials
	GeometryPath string
}

// Sampler is the black-box optimizer behind a Study. Suggest returns a point
// inside dims for the given trial; Tell reports how that trial ended.
// Higher objective values are better.
type Sampler interface {
	Suggest(trial int, dims []Dimension) []float64
	Tell(rec TrialRecord)
}

// TPEConfig tunes the TPESampler.
type TPEConfig struct {
	StartupTrials int     // uniform random trials before modelling starts
	Candidates    int     // draws from l(x) per dimension per suggestion
	Gamma         float64 // fraction of completed trials treated as "good"
}

// DefaultTPEConfig mirrors the usual tree-structured Parzen estimator defaults.
func DefaultTPEConfig() TPEConfig {
	return TPEConfig{StartupTrials: 10, Candidates: 24, Gamma: 0.25}
}

// TPESampler is a univariate tree-structured Parzen estimator.
//
// After StartupTrials uniform draws it splits completed trials into the best
// Gamma fraction and the rest, fits a Gaussian mixture (plus a uniform prior)
// to each per dimension, samples Candidates points from the good mixture and
// keeps the one maximising l(x)/g(x). Pruned trials do not shape either mixture.
type TPESampler struct {
	cfg      TPEConfig
	rng      *dimensionRNG
	observed []TrialRecord
}

// NewTPESampler creates a TPESampler with deterministic per-dimension streams.
func NewTPESampler(seed int64, cfg TPEConfig) *TPESampler {
	def := DefaultTPEConfig()
	if cfg.StartupTrials <= 0 {
		cfg.StartupTrials = def.StartupTrials
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = def.Candidates
	}
	if cfg.Gamma <= 0 || cfg.Gamma >= 1 {
		cfg.Gamma = def.Gamma
	}
	return &TPESampler{cfg: cfg, rng: newDimensionRNG(seed)}
}

// Suggest implements Sampler.
func (s *TPESampler) Suggest(_ int, dims []Dimension) []float64 {
	good, bad := s.split()
	values := make([]float64, len(dims))
	for i, d := range dims {
		rng := s.rng.forDimension(d.Name)
		var v float64
		if len(s.observed) < s.cfg.StartupTrials || d.High <= d.Low {
			v = uniform(rng, d)
		} else {
			v = s.sampleDimension(rng, d, column(good, i), column(bad, i))
		}
		if d.Integer {
			v = math.Round(v)
		}
		values[i] = math.Max(d.Low, math.Min(d.High, v))
	}
	return values
}

// Tell implements Sampler. Only completed trials are kept.
func (s *TPESampler) Tell(rec TrialRecord) {
	if rec.State != TrialComplete {
		return
	}
	s.observed = append(s.observed, rec)
}

// split partitions completed trials into good (best Gamma fraction) and bad.
func (s *TPESampler) split() (good, bad []TrialRecord) {
	if len(s.observed) == 0 {
		return nil, nil
	}
	sorted := make([]TrialRecord, len(s.observed))
	copy(sorted, s.observed)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	nGood := int(math.Ceil(s.cfg.Gamma * float64(len(sorted))))
	nGood = max(1, min(nGood, len(sorted)))
	return sorted[:nGood], sorted[nGood:]
}

// uniform draws from d. Integer dimensions draw over [Low-0.5, High+0.5) so
// that after rounding every integer, endpoints included, is equally likely.
func uniform(rng *rand.Rand, d Dimension) float64 {
	if d.Integer {
		return d.Low - 0.5 + rng.Float64()*(d.High-d.Low+1)
	}
	return d.Low + rng.Float64()*(d.High-d.Low)
}

func column(recs []TrialRecord, i int) []float64 {
	col := make([]float64, len(recs))
	for k, r := range recs {
		col[k] = r.Values[i]
	}
	return col
}

func (s *TPESampler) sampleDimension(rng *rand.Rand, d Dimension, good, bad []float64) float64 {
	lGood := newParzen(good, d)
	lBad := newParzen(bad, d)

	candidates := make([]float64, s.cfg.Candidates)
	scores := make([]float64, s.cfg.Candidates)
	for k := range candidates {
		var x float64
		if len(good) == 0 || rng.Intn(len(good)+1) == len(good) {
			x = uniform(rng, d) // prior component
		} else {
			center := good[rng.Intn(len(good))]
			x = center + rng.NormFloat64()*lGood.sigma
		}
		x = math.Max(d.Low, math.Min(d.High, x))
		candidates[k] = x
		scores[k] = lGood.logDensity(x) - lBad.logDensity(x)
	}
	return candidates[floats.MaxIdx(scores)]
}

// parzen is a Gaussian mixture over observed points plus a uniform prior over the range.
type parzen struct {
	kernels []distuv.Normal
	sigma   float64
	prior   float64
}

func newParzen(points []float64, d Dimension) parzen {
	width := d.High - d.Low
	n := float64(len(points))
	// Scott-style shrinkage with a floor so kernels never collapse.
	sigma := math.Max(0.2*width*math.Pow(n+1, -0.2), 0.01*width)
	kernels := make([]distuv.Normal, len(points))
	for i, p := range points {
		kernels[i] = distuv.Normal{Mu: p, Sigma: sigma}
	}
	return parzen{kernels: kernels, sigma: sigma, prior: 1 / width}
}

func (p parzen) logDensity(x float64) float64 {
	total := p.prior
	for _, k := range p.kernels {
		total += k.Prob(x)
	}
	return math.Log(total / float64(len(p.kernels)+1))
}
