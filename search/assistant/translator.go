package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ssep-lab/ssep-search/search/optimizer"
)

const translatorPrompt = `You convert a request for an EHD thruster design study into a JSON search space.
Return ONLY JSON with this shape:
{"objective": "maximize_thrust_density", "search_space": {"gap_mm": [low, high], "V_kV": [low, high], "phi": [low, high], "stages": [low, high]}, "budget": {"trials": 30, "parallel": 1}}
objective is maximize_thrust_density or maximize_thrust_per_watt.
Bounds: gap_mm within (0, 6], V_kV within [15, 40], phi within [0.8, 1.8], stages are integers within [1, 6].`

// Translator turns a natural-language request into an optimizer.SearchSpace.
type Translator struct {
	client Completer
}

// NewTranslator creates a Translator. A nil client always yields the default space.
func NewTranslator(client Completer) *Translator {
	return &Translator{client: client}
}

// Translate never fails: when the assistant is unavailable, or its reply does
// not decode to a valid space, it returns optimizer.DefaultSearchSpace().
func (t *Translator) Translate(ctx context.Context, text string) optimizer.SearchSpace {
	if t == nil || t.client == nil {
		return optimizer.DefaultSearchSpace()
	}
	space, err := t.translate(ctx, text)
	if err != nil {
		logrus.Warnf("search-space translation failed, using default: %v", err)
		return optimizer.DefaultSearchSpace()
	}
	return space
}

func (t *Translator) translate(ctx context.Context, text string) (optimizer.SearchSpace, error) {
	reply, err := t.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: translatorPrompt},
		{Role: RoleUser, Content: text},
	}, CompletionOptions{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens})
	if err != nil {
		return optimizer.SearchSpace{}, err
	}

	span := jsonObject.FindString(reply)
	if span == "" {
		return optimizer.SearchSpace{}, errors.New("model did not return JSON: " + truncate(reply, maxQuotedOutput))
	}
	space := optimizer.DefaultSearchSpace()
	space.Bounds = optimizer.Bounds{}
	if err := json.Unmarshal([]byte(span), &space); err != nil {
		return optimizer.SearchSpace{}, fmt.Errorf("decoding search space: %w", err)
	}
	if err := space.Validate(); err != nil {
		return optimizer.SearchSpace{}, fmt.Errorf("invalid search space: %w", err)
	}
	if space.Budget.Trials == 0 {
		space.Budget.Trials = optimizer.DefaultSearchSpace().Budget.Trials
	}
	return space, nil
}
