// Package cost estimates spend for oracle token usage.
package cost

import (
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// ModelRate holds per-model token pricing in USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps model identifiers to their pricing.
type Rates map[string]ModelRate

// Calculator computes estimated costs for oracle usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Estimate computes the cost for the given model and token usage. Unknown
// models cost zero; the run report marks the estimate as unavailable rather
// than guessing a rate.
func (c *Calculator) Estimate(model string, usage oracle.TokenUsage) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}

	inCost := (float64(usage.InputTokens) / 1e6) * rate.Input
	outCost := (float64(usage.OutputTokens) / 1e6) * rate.Output
	return inCost + outCost
}

// Known reports whether pricing exists for the model.
func (c *Calculator) Known(model string) bool {
	_, ok := c.rates[model]
	return ok
}

// DefaultRates returns the default pricing table.
func DefaultRates() Rates {
	return Rates{
		"claude-haiku-4-5-20251001": {
			Input: 0.80, Output: 4.00,
		},
		"claude-sonnet-4-5-20250929": {
			Input: 3.00, Output: 15.00,
		},
		"claude-opus-4-6": {
			Input: 15.00, Output: 75.00,
		},
	}
}
