package search

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// ProposalStrategy decides the parameters of the next trial from the history so far.
// history is ordered by trial and holds only past observations; implementations
// must not retain or modify it. The caller sanitizes the returned set.
type ProposalStrategy interface {
	Name() string
	Propose(ctx context.Context, history []Observation) (ParameterSet, error)
}

// AssistantConfig configures the language-model backed strategy.
type AssistantConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// StrategyConfig selects and configures a ProposalStrategy.
type StrategyConfig struct {
	Name      string // "heuristic" (default) or "assistant"
	Assistant AssistantConfig
}

// NewAssistantStrategyFunc builds the assistant strategy. It is set by
// search/assistant's init(); production code imports that package directly.
var NewAssistantStrategyFunc func(cfg AssistantConfig) ProposalStrategy

// validStrategies is the set of recognized strategy names.
var validStrategies = map[string]bool{"": true, "heuristic": true, "assistant": true}

// IsValidStrategy returns true if name is a recognized proposal strategy.
func IsValidStrategy(name string) bool {
	return validStrategies[name]
}

// ValidStrategyNames returns the recognized non-empty strategy names, sorted.
func ValidStrategyNames() []string {
	names := make([]string, 0, len(validStrategies))
	for n := range validStrategies {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// NewProposalStrategy creates the strategy named in cfg.
// Panics on unknown names; validate with IsValidStrategy first.
func NewProposalStrategy(cfg StrategyConfig) ProposalStrategy {
	if !IsValidStrategy(cfg.Name) {
		panic(fmt.Sprintf("unknown proposal strategy %q", cfg.Name))
	}
	switch cfg.Name {
	case "", "heuristic":
		return &HeuristicDecay{}
	case "assistant":
		if NewAssistantStrategyFunc == nil {
			panic("NewAssistantStrategyFunc not registered: import search/assistant")
		}
		return NewAssistantStrategyFunc(cfg.Assistant)
	default:
		panic(fmt.Sprintf("unhandled proposal strategy %q", cfg.Name))
	}
}

// Step factors shared by the heuristic and the fallback.
const (
	decayStep   = 0.98
	phiStep     = 1.02
	fallbackGap = 0.9
)

// HeuristicDecay perturbs the most recent trial's parameters: voltage and gap
// shrink by 2%, phi grows by 2% up to its ceiling, stages stay put.
// It is a fallback heuristic, not an optimizer, and never fails.
type HeuristicDecay struct{}

// Name implements ProposalStrategy.
func (h *HeuristicDecay) Name() string { return "heuristic" }

// Propose implements ProposalStrategy for HeuristicDecay.
func (h *HeuristicDecay) Propose(_ context.Context, history []Observation) (ParameterSet, error) {
	if len(history) == 0 {
		return DefaultParameters(), nil
	}
	last := history[len(history)-1].Params
	return ParameterSet{
		VoltageKV: last.VoltageKV * decayStep,
		GapM:      last.GapM * decayStep,
		Phi:       math.Min(MaxPhi, last.Phi*phiStep),
		Stages:    last.Stages,
	}, nil
}

// BestNeighborhood is the recovery proposal used when a strategy fails:
// a small step around the best parameters seen so far.
func BestNeighborhood(best ParameterSet) ParameterSet {
	return ParameterSet{
		VoltageKV: best.VoltageKV * decayStep,
		GapM:      math.Max(MinGapM, best.GapM*fallbackGap),
		Phi:       math.Min(MaxPhi, best.Phi*phiStep),
		Stages:    best.Stages,
		Note:      "fallback: best neighbourhood",
	}
}
