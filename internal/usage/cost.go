package usage

import (
	"Asclepius/internal/config"
	"Asclepius/internal/models"
)

const tokensPerPriceUnit = 1_000_000

// ComputeCost derives the USD cost of one turn from its token counts and the
// model's price row. Absent counts contribute zero; cached input tokens are
// billed at the cached rate instead of the full input rate when one is set.
func ComputeCost(u models.TurnUsage, price config.ModelPrice) (inputCost, outputCost, totalCost float64) {
	input := count(u.InputTokens)
	cached := count(u.CachedTokens)
	if cached > input {
		cached = input
	}

	if price.CachedPerMillion > 0 {
		inputCost = perMillion(input-cached, price.InputPerMillion) + perMillion(cached, price.CachedPerMillion)
	} else {
		inputCost = perMillion(input, price.InputPerMillion)
	}

	// Reasoning tokens are generated output and billed at the output rate.
	outputCost = perMillion(count(u.OutputTokens)+count(u.ReasoningTokens), price.OutputPerMillion)
	totalCost = inputCost + outputCost
	return inputCost, outputCost, totalCost
}

func count(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func perMillion(tokens int64, rate float64) float64 {
	return float64(tokens) * rate / tokensPerPriceUnit
}
