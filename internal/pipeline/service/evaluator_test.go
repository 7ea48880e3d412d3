package service

import (
	"testing"

	"golang-stock-advisor/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		signal        entity.Signal
		latest        float64
		previous      float64
		wantCorrect   bool
		wantEvaluated bool
	}{
		{"buy on rise is correct", entity.SignalBuy, 105, 100, true, true},
		{"buy on flat is correct", entity.SignalBuy, 100, 100, true, true},
		{"buy on drop is incorrect", entity.SignalBuy, 95, 100, false, true},
		{"hold on rise is correct", entity.SignalHold, 105, 100, true, true},
		{"hold on flat is correct", entity.SignalHold, 100, 100, true, true},
		{"hold on drop is incorrect", entity.SignalHold, 95, 100, false, true},
		{"sell on drop is correct", entity.SignalSell, 95, 100, true, true},
		{"sell on flat is incorrect", entity.SignalSell, 100, 100, false, true},
		{"sell on rise is incorrect", entity.SignalSell, 105, 100, false, true},
		{"missing latest price stays unevaluated", entity.SignalBuy, 0, 100, false, false},
		{"missing previous price stays unevaluated", entity.SignalSell, 100, 0, false, false},
		{"unknown signal stays unevaluated", entity.Signal("Short"), 105, 100, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, evaluated := Evaluate(tt.signal, tt.latest, tt.previous)
			assert.Equal(t, tt.wantCorrect, correct)
			assert.Equal(t, tt.wantEvaluated, evaluated)
		})
	}
}
