package usage

import (
	"math"
	"testing"

	"Asclepius/internal/config"
	"Asclepius/internal/models"
)

func ptr(n int64) *int64 { return &n }

func TestComputeCost(t *testing.T) {
	price := config.ModelPrice{
		Model:            "gemini-2.5-flash",
		InputPerMillion:  0.30,
		OutputPerMillion: 2.50,
		CachedPerMillion: 0.075,
	}

	tests := []struct {
		name       string
		usage      models.TurnUsage
		wantInput  float64
		wantOutput float64
	}{
		{
			name:       "full counts",
			usage:      models.TurnUsage{InputTokens: ptr(1_000_000), OutputTokens: ptr(2_000_000)},
			wantInput:  0.30,
			wantOutput: 5.00,
		},
		{
			name:       "cached portion billed at cached rate",
			usage:      models.TurnUsage{InputTokens: ptr(1_000_000), CachedTokens: ptr(1_000_000), OutputTokens: ptr(0)},
			wantInput:  0.075,
			wantOutput: 0,
		},
		{
			name:       "reasoning tokens billed as output",
			usage:      models.TurnUsage{OutputTokens: ptr(1_000_000), ReasoningTokens: ptr(1_000_000)},
			wantInput:  0,
			wantOutput: 5.00,
		},
		{
			name:       "absent counts contribute zero",
			usage:      models.TurnUsage{},
			wantInput:  0,
			wantOutput: 0,
		},
		{
			name:       "cached count capped at input count",
			usage:      models.TurnUsage{InputTokens: ptr(500_000), CachedTokens: ptr(900_000)},
			wantInput:  0.0375,
			wantOutput: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotInput, gotOutput, gotTotal := ComputeCost(tt.usage, price)
			if !closeTo(gotInput, tt.wantInput) {
				t.Errorf("input cost = %v, want %v", gotInput, tt.wantInput)
			}
			if !closeTo(gotOutput, tt.wantOutput) {
				t.Errorf("output cost = %v, want %v", gotOutput, tt.wantOutput)
			}
			if !closeTo(gotTotal, tt.wantInput+tt.wantOutput) {
				t.Errorf("total cost = %v, want %v", gotTotal, tt.wantInput+tt.wantOutput)
			}
		})
	}
}

func TestComputeCostUnlistedModel(t *testing.T) {
	var pricing config.PricingConfig
	usage := models.TurnUsage{InputTokens: ptr(1000), OutputTokens: ptr(1000)}
	_, _, total := ComputeCost(usage, pricing.ForModel("unknown-model"))
	if total != 0 {
		t.Errorf("total cost for unlisted model = %v, want 0", total)
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}
