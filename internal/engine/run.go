package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategylab/internal/script"
	"strategylab/internal/series"
	"strategylab/types"
)

// RunResult is the outcome of one replay. Ratios are NaN when undefined.
type RunResult struct {
	Symbol string `json:"symbol"`

	Trades []types.Trade `json:"trades"`
	Fills  []types.Fill  `json:"fills"`
	Orders []types.Order `json:"orders"`

	NetProfit   decimal.Decimal `json:"netProfit"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	GrossLoss   decimal.Decimal `json:"grossLoss"`
	OpenPnL     decimal.Decimal `json:"openPnl"`

	SharpeRatio  float64 `json:"sharpeRatio"`
	SortinoRatio float64 `json:"sortinoRatio"`
	Volatility   float64 `json:"volatility"`
	CAGR         float64 `json:"cagr"`
	CalmarRatio  float64 `json:"calmarRatio"`
	MaxDrawdown  float64 `json:"maxDrawdown"`
	MaxRunUp     float64 `json:"maxRunUp"`

	AvgWin               decimal.Decimal `json:"avgWin"`
	AvgLoss              decimal.Decimal `json:"avgLoss"`
	ProfitFactor         float64         `json:"profitFactor"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`

	FirstBar    types.Bar         `json:"firstBar"`
	FinalBar    types.Bar         `json:"finalBar"`
	EquityCurve []decimal.Decimal `json:"equityCurve"`
}

// TotalPnL is realized plus open profit.
func (r *RunResult) TotalPnL() decimal.Decimal {
	return r.NetProfit.Add(r.OpenPnL)
}

func (r *RunResult) ClosedTrades() int {
	n := 0
	for _, t := range r.Trades {
		if !t.IsOpen() {
			n++
		}
	}
	return n
}

// Run replays program over s from cfg.Start() to the last bar.
func Run(s *series.Series, program *script.Program, cfg *RunConfig, logger *zap.Logger) (*RunResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Start() < 0 || cfg.Start() >= s.Len() {
		return nil, fmt.Errorf("start index %d outside series of %d bars: %w", cfg.Start(), s.Len(), ErrInvalidArgument)
	}

	c := NewContext(s, program, cfg, logger)
	for i := cfg.Start(); i < s.Len(); i++ {
		if err := c.Step(i); err != nil {
			return nil, err
		}
	}
	if n := c.orders.expire(); n > 0 {
		logger.Debug("expired open orders", zap.Int("count", n))
	}

	res := c.result()
	logger.Debug("run finished",
		zap.String("symbol", s.Symbol()),
		zap.Int("bars", len(res.EquityCurve)),
		zap.Int("fills", len(res.Fills)),
		zap.String("net_profit", res.NetProfit.String()),
	)
	return res, nil
}

func (c *Context) result() *RunResult {
	first := c.series.At(c.cfg.Start())
	final := c.series.At(c.index)
	trades := c.position.snapshot()
	stats := calcTradeStats(trades)
	returns := c.equity.returns()

	curve := append([]decimal.Decimal(nil), c.equity.curve...)
	cagr := calcCAGR(first.Date, final.Date, curve[0], curve[len(curve)-1])

	return &RunResult{
		Symbol:               c.series.Symbol(),
		Trades:               trades,
		Fills:                append([]types.Fill(nil), c.fills...),
		Orders:               c.orders.all(),
		NetProfit:            c.position.realized(),
		GrossProfit:          stats.grossProfit,
		GrossLoss:            stats.grossLoss,
		OpenPnL:              c.position.unrealized(final),
		SharpeRatio:          calcSharpeRatio(returns, c.cfg.RiskFreeRate()),
		SortinoRatio:         calcSortinoRatio(returns, c.cfg.RiskFreeRate()),
		Volatility:           calcVolatility(returns),
		CAGR:                 cagr,
		CalmarRatio:          calcCalmar(cagr, c.equity.maxDrawdown),
		MaxDrawdown:          c.equity.maxDrawdown,
		MaxRunUp:             c.equity.maxRunUp,
		AvgWin:               stats.avgWin,
		AvgLoss:              stats.avgLoss,
		ProfitFactor:         stats.profitFactor(),
		MaxConsecutiveLosses: stats.maxConsecutiveLosses,
		FirstBar:             first,
		FinalBar:             final,
		EquityCurve:          curve,
	}
}
