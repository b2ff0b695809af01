package engine

import (
	"github.com/shopspring/decimal"
)

// TradingDaysPerYear annualizes per-bar statistics, assuming daily bars.
const TradingDaysPerYear = 252

type RunConfig struct {
	initialCapital decimal.Decimal
	start          int
	riskFreeRate   float64
}

// NewRunConfig configures a replay that starts evaluating the script at bar
// index start. Bars before start only seed indicators.
func NewRunConfig(initialCapital decimal.Decimal, start int) *RunConfig {
	return &RunConfig{
		initialCapital: initialCapital,
		start:          start,
	}
}

// WithRiskFreeRate sets the annual risk-free rate subtracted from per-bar
// returns in the Sharpe and Sortino ratios.
func (c *RunConfig) WithRiskFreeRate(rate float64) *RunConfig {
	c.riskFreeRate = rate
	return c
}

func (c *RunConfig) InitialCapital() decimal.Decimal {
	return c.initialCapital
}

func (c *RunConfig) Start() int {
	return c.start
}

func (c *RunConfig) RiskFreeRate() float64 {
	return c.riskFreeRate
}
