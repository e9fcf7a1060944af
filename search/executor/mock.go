package executor

import (
	"context"
	"math"

	"github.com/ssep-lab/ssep-search/search"
)

// Physical constants and shape parameters of the mock model.
const (
	epsilon0        = 8.854e-12 // F/m
	ionMobility     = 2.0e-4    // m²/(V·s), positive ions in air
	onsetField      = 2.0e6     // V/m, corona onset
	breakdownField  = 1.5e7     // V/m, arcs degrade thrust beyond this
	stageEfficiency = 0.85
	phiOptimum      = 1.3
	phiWidth        = 0.35
)

// Mock is a deterministic analytic stand-in for the simulator, used for dry
// runs without the external binary. It models a space-charge limited corona
// discharge (Mott–Gurney current with an onset voltage), converts current to
// EHD pressure via J·d/μ, and applies stage, phi and breakdown factors.
type Mock struct{}

// Evaluate implements search.Executor for Mock. It fails only on a cancelled context.
func (Mock) Evaluate(ctx context.Context, p search.ParameterSet, _ string) (search.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return search.Metrics{}, err
	}
	v := p.VoltageV()
	d := p.GapM
	onset := onsetField * d
	if d <= 0 || v <= onset {
		return search.Metrics{}, nil
	}

	j := 9.0 / 8.0 * epsilon0 * ionMobility * v * (v - onset) / (d * d * d)
	stages := float64(max(1, p.Stages))
	stageGain := stages * math.Pow(stageEfficiency, stages-1)
	phiGain := math.Exp(-math.Pow((p.Phi-phiOptimum)/phiWidth, 2))

	thrust := j * d / ionMobility * stageGain * phiGain
	if field := v / d; field > breakdownField {
		thrust *= math.Exp(-4 * (field/breakdownField - 1))
	}
	return search.Metrics{
		ThrustDensity:  thrust,
		CurrentDensity: j,
		Power:          v * j * stages,
	}, nil
}
