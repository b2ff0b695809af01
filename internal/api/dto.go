package api

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"strategylab/internal/engine"
	"strategylab/internal/montecarlo"
	"strategylab/types"
)

// float marshals NaN and infinities as null.
type float float64

func (f float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floats(values []float64) []float {
	out := make([]float, len(values))
	for i, v := range values {
		out[i] = float(v)
	}
	return out
}

type runResultDTO struct {
	Symbol string        `json:"symbol"`
	Trades []types.Trade `json:"trades"`
	Fills  []types.Fill  `json:"fills"`
	Orders []types.Order `json:"orders"`

	NetProfit   decimal.Decimal `json:"netProfit"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	GrossLoss   decimal.Decimal `json:"grossLoss"`
	OpenPnL     decimal.Decimal `json:"openPnl"`
	TotalPnL    decimal.Decimal `json:"totalPnl"`

	SharpeRatio  float `json:"sharpeRatio"`
	SortinoRatio float `json:"sortinoRatio"`
	Volatility   float `json:"volatility"`
	CAGR         float `json:"cagr"`
	CalmarRatio  float `json:"calmarRatio"`
	MaxDrawdown  float `json:"maxDrawdown"`
	MaxRunUp     float `json:"maxRunUp"`

	AvgWin               decimal.Decimal `json:"avgWin"`
	AvgLoss              decimal.Decimal `json:"avgLoss"`
	ProfitFactor         float           `json:"profitFactor"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`
	ClosedTrades         int             `json:"closedTrades"`

	EquityCurve []decimal.Decimal `json:"equityCurve"`
}

func newRunResultDTO(r *engine.RunResult) runResultDTO {
	return runResultDTO{
		Symbol:               r.Symbol,
		Trades:               r.Trades,
		Fills:                r.Fills,
		Orders:               r.Orders,
		NetProfit:            r.NetProfit,
		GrossProfit:          r.GrossProfit,
		GrossLoss:            r.GrossLoss,
		OpenPnL:              r.OpenPnL,
		TotalPnL:             r.TotalPnL(),
		SharpeRatio:          float(r.SharpeRatio),
		SortinoRatio:         float(r.SortinoRatio),
		Volatility:           float(r.Volatility),
		CAGR:                 float(r.CAGR),
		CalmarRatio:          float(r.CalmarRatio),
		MaxDrawdown:          float(r.MaxDrawdown),
		MaxRunUp:             float(r.MaxRunUp),
		AvgWin:               r.AvgWin,
		AvgLoss:              r.AvgLoss,
		ProfitFactor:         float(r.ProfitFactor),
		MaxConsecutiveLosses: r.MaxConsecutiveLosses,
		ClosedTrades:         r.ClosedTrades(),
		EquityCurve:          r.EquityCurve,
	}
}

type summaryDTO struct {
	Mean    float `json:"mean"`
	Median  float `json:"median"`
	P5      float `json:"p5"`
	P25     float `json:"p25"`
	P75     float `json:"p75"`
	P95     float `json:"p95"`
	Samples int   `json:"samples"`
}

type bandsDTO struct {
	Mean []float `json:"mean"`
	P5   []float `json:"p5"`
	P25  []float `json:"p25"`
	P50  []float `json:"p50"`
	P75  []float `json:"p75"`
	P95  []float `json:"p95"`
}

type monteCarloDTO struct {
	BatchID            string                `json:"batchId"`
	Permutations       int                   `json:"permutations"`
	Sigma              float                 `json:"sigma"`
	Metrics            map[string]summaryDTO `json:"metrics"`
	ProbabilityOfLoss  float                 `json:"probabilityOfLoss"`
	ExpectedShortfall5 float                 `json:"expectedShortfall5"`
	Equity             bandsDTO              `json:"equity"`
}

func newMonteCarloDTO(r *montecarlo.Result) monteCarloDTO {
	metrics := make(map[string]summaryDTO, len(r.Metrics))
	for name, s := range r.Metrics {
		metrics[name] = summaryDTO{
			Mean:    float(s.Mean),
			Median:  float(s.Median),
			P5:      float(s.P5),
			P25:     float(s.P25),
			P75:     float(s.P75),
			P95:     float(s.P95),
			Samples: s.Samples,
		}
	}
	return monteCarloDTO{
		BatchID:            r.BatchID,
		Permutations:       r.Permutations,
		Sigma:              float(r.Sigma),
		Metrics:            metrics,
		ProbabilityOfLoss:  float(r.ProbabilityOfLoss),
		ExpectedShortfall5: float(r.ExpectedShortfall5),
		Equity: bandsDTO{
			Mean: floats(r.Equity.Mean),
			P5:   floats(r.Equity.P5),
			P25:  floats(r.Equity.P25),
			P50:  floats(r.Equity.P50),
			P75:  floats(r.Equity.P75),
			P95:  floats(r.Equity.P95),
		},
	}
}
