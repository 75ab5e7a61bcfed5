// Package cost computes USD cost attribution for provider token usage.
package cost

import (
	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/model"
)

// Rate holds per-provider token pricing (USD per million tokens).
type Rate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps provider identities to pricing.
type Rates map[model.Provider]Rate

// Calculator computes costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of one provider completion. Unknown
// providers cost zero.
func (c *Calculator) Completion(provider model.Provider, usage model.TokenUsage) float64 {
	rate, ok := c.rates[provider]
	if !ok {
		return 0
	}
	inCost := (float64(usage.InputTokens) / 1e6) * rate.Input
	outCost := (float64(usage.OutputTokens) / 1e6) * rate.Output
	return inCost + outCost
}

// Batch sums the cost over a batch of response nodes.
func (c *Calculator) Batch(nodes []model.ResponseNode) float64 {
	total := 0.0
	for _, n := range nodes {
		total += c.Completion(n.Provider, n.Usage)
	}
	return total
}

// LogCompletion logs one completion's usage and estimated cost.
func (c *Calculator) LogCompletion(provider model.Provider, usage model.TokenUsage) {
	zap.L().Info("cost attribution",
		zap.String("provider", provider.String()),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
		zap.Float64("estimated_cost_usd", c.Completion(provider, usage)),
	)
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		model.ProviderOpenAI:    {Input: 2.50, Output: 10.00},
		model.ProviderAnthropic: {Input: 3.00, Output: 15.00},
		model.ProviderGemini:    {Input: 0.10, Output: 0.40},
		model.ProviderDeepSeek:  {Input: 0.27, Output: 1.10},
	}
}
