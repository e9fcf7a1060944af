package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssep-lab/ssep-search/search/optimizer"
)

func TestTranslator_Translate(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  optimizer.SearchSpace
	}{
		{
			name:  "valid reply in prose",
			reply: `Here: {"objective": "maximize_thrust_per_watt", "search_space": {"gap_mm": [1, 3], "V_kV": [20, 30]}, "budget": {"trials": 12, "parallel": 1}}`,
			want: optimizer.SearchSpace{
				Objective: optimizer.ObjectiveThrustPerWatt,
				Bounds:    optimizer.Bounds{GapMM: []float64{1, 3}, VoltageKV: []float64{20, 30}},
				Budget:    optimizer.Budget{Trials: 12, Parallel: 1},
			},
		},
		{
			name:  "missing budget keeps the default budget",
			reply: `{"search_space": {"gap_mm": [0.5, 2], "V_kV": [15, 40], "stages": [2, 2]}}`,
			want: optimizer.SearchSpace{
				Objective: optimizer.ObjectiveThrustDensity,
				Bounds:    optimizer.Bounds{GapMM: []float64{0.5, 2}, VoltageKV: []float64{15, 40}, Stages: []int{2, 2}},
				Budget:    optimizer.DefaultSearchSpace().Budget,
			},
		},
		{name: "endpoint error", err: errors.New("down"), want: optimizer.DefaultSearchSpace()},
		{name: "prose only", reply: "sorry", want: optimizer.DefaultSearchSpace()},
		{
			name:  "voltage outside envelope",
			reply: `{"search_space": {"gap_mm": [1, 3], "V_kV": [10, 60]}}`,
			want:  optimizer.DefaultSearchSpace(),
		},
		{
			name:  "unknown objective",
			reply: `{"objective": "minimize_noise", "search_space": {"gap_mm": [1, 3], "V_kV": [20, 30]}}`,
			want:  optimizer.DefaultSearchSpace(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTranslator(&stubCompleter{reply: tt.reply, err: tt.err})
			assert.Equal(t, tt.want, tr.Translate(context.Background(), "maximize thrust with a small gap"))
		})
	}
}

func TestTranslator_NilClientReturnsDefault(t *testing.T) {
	assert.Equal(t, optimizer.DefaultSearchSpace(), NewTranslator(nil).Translate(context.Background(), "anything"))
}
