package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ssep-lab/ssep-search/search"
)

// StrategyName is the name the assistant strategy registers under.
const StrategyName = "assistant"

// Default sampling for proposals: deterministic-leaning and short.
const (
	DefaultTemperature = 0.0
	DefaultMaxTokens   = 300
)

// SystemPrompt fixes the output contract and the hard bounds.
var SystemPrompt = fmt.Sprintf(`You are an optimization orchestrator for a Solid-State Electroaerodynamic Propulsion (SSEP) simulator.
Goal: maximize thrust_density while keeping parameters within safe bounds.
Always propose the next params as a strict JSON with keys: V_kV (number), gap_m (number), phi (number), stages (integer), and an optional note.
Hard bounds:
- %g <= V_kV <= %g
- %g <= gap_m <= %g
- %g <= phi <= %g
- %d <= stages <= %d
Return ONLY JSON. No prose, no markdown. Example:
{"V_kV": 35.0, "gap_m": 0.0012, "phi": 1.2, "stages": 3, "note": "reason"}`,
	search.MinVoltageKV, search.MaxVoltageKV,
	search.MinGapM, search.MaxGapM,
	search.MinPhi, search.MaxPhi,
	search.MinStages, search.MaxStages)

// Strategy asks the chat endpoint for the next parameters given the full history.
type Strategy struct {
	client Completer
	opts   CompletionOptions
}

// NewStrategy creates an assistant-guided strategy. A zero MaxTokens uses DefaultMaxTokens.
func NewStrategy(client Completer, opts CompletionOptions) *Strategy {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Strategy{client: client, opts: opts}
}

// Name implements search.ProposalStrategy.
func (s *Strategy) Name() string { return StrategyName }

// Propose implements search.ProposalStrategy. Every failure is a *search.ProposalError.
func (s *Strategy) Propose(ctx context.Context, history []search.Observation) (search.ParameterSet, error) {
	user, err := userMessage(history)
	if err != nil {
		return search.ParameterSet{}, &search.ProposalError{Reason: "encoding history", Err: err}
	}
	text, err := s.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: user},
	}, s.opts)
	if err != nil {
		return search.ParameterSet{}, &search.ProposalError{Reason: "chat endpoint", Err: err}
	}
	logrus.Debugf("assistant reply: %s", truncate(text, maxQuotedOutput))
	return ParseProposal(text)
}

func userMessage(history []search.Observation) (string, error) {
	if history == nil {
		history = []search.Observation{}
	}
	payload, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return "We iterate. Here is the history as JSON.\n" +
		"Each item has params (V_kV,gap_m,phi,stages) and metrics (thrust_density,current_density,power).\n" +
		string(payload) + "\n" +
		"Propose the next parameters within the hard bounds.\n" +
		"Return STRICT JSON ONLY with keys: V_kV, gap_m, phi, stages, and optional note.", nil
}
