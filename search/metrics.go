package search

import (
	"encoding/json"
	"fmt"
)

// Metrics are the measurements the simulator reports for one ParameterSet.
// They are only ever produced by an Executor.
type Metrics struct {
	ThrustDensity  float64 `json:"thrust_density"`
	CurrentDensity float64 `json:"current_density"`
	Power          float64 `json:"power"`
}

// RequiredMetricKeys lists the keys a simulator result must carry.
var RequiredMetricKeys = []string{"thrust_density", "current_density", "power"}

// Observation pairs the parameters of a trial with its measured metrics.
type Observation struct {
	Params  ParameterSet `json:"params"`
	Metrics Metrics      `json:"metrics"`
}

// ParseMetrics decodes a simulator result document.
// A missing required key yields a *ValidationError; extra keys are ignored.
func ParseMetrics(data []byte) (Metrics, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metrics{}, fmt.Errorf("parsing result JSON: %w", err)
	}
	for _, k := range RequiredMetricKeys {
		if _, ok := raw[k]; !ok {
			return Metrics{}, &ValidationError{Key: k}
		}
	}
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return Metrics{}, fmt.Errorf("decoding result metrics: %w", err)
	}
	return m, nil
}
