package engine

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"strategylab/types"
)

// equityTracker records the equity of every evaluated bar together with the
// running peak and trough.
type equityTracker struct {
	curve       []decimal.Decimal
	peak        decimal.Decimal
	trough      decimal.Decimal
	maxDrawdown float64
	maxRunUp    float64
}

func (m *equityTracker) record(equity decimal.Decimal) {
	if len(m.curve) == 0 {
		m.peak = equity
		m.trough = equity
	}
	m.curve = append(m.curve, equity)

	if equity.GreaterThan(m.peak) {
		m.peak = equity
	}
	if equity.LessThan(m.trough) {
		m.trough = equity
	}
	if m.peak.IsPositive() {
		dd := equity.Sub(m.peak).Div(m.peak).InexactFloat64()
		if dd < m.maxDrawdown {
			m.maxDrawdown = dd
		}
	}
	if m.trough.IsPositive() {
		ru := equity.Sub(m.trough).Div(m.trough).InexactFloat64()
		if ru > m.maxRunUp {
			m.maxRunUp = ru
		}
	}
}

// returns derives simple per-bar returns from consecutive equity values.
// Steps from a non-positive equity are skipped.
func (m *equityTracker) returns() []float64 {
	if len(m.curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(m.curve)-1)
	for i := 1; i < len(m.curve); i++ {
		prev := m.curve[i-1]
		if !prev.IsPositive() {
			continue
		}
		out = append(out, m.curve[i].Div(prev).Sub(decimal.NewFromInt(1)).InexactFloat64())
	}
	return out
}

func excessReturns(returns []float64, annualRiskFree float64) []float64 {
	rf := annualRiskFree / TradingDaysPerYear
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - rf
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev is NaN for fewer than two samples.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var varianceSum float64
	for _, x := range xs {
		diff := x - m
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(len(xs)-1))
}

func calcSharpeRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	excess := excessReturns(returns, annualRiskFree)
	std := sampleStdDev(excess)
	if std == 0 {
		return math.NaN()
	}
	return mean(excess) / std * math.Sqrt(TradingDaysPerYear)
}

// calcSortinoRatio uses the downside deviation of excess returns below zero.
func calcSortinoRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	excess := excessReturns(returns, annualRiskFree)
	var downside float64
	for _, x := range excess {
		if x < 0 {
			downside += x * x
		}
	}
	dd := math.Sqrt(downside / float64(len(excess)-1))
	if dd == 0 {
		return math.NaN()
	}
	return mean(excess) / dd * math.Sqrt(TradingDaysPerYear)
}

func calcVolatility(returns []float64) float64 {
	return sampleStdDev(returns) * math.Sqrt(TradingDaysPerYear)
}

// calcCAGR measures years between the first and last evaluated bar using
// 365.25-day years.
func calcCAGR(start, end time.Time, startEquity, endEquity decimal.Decimal) float64 {
	if !startEquity.IsPositive() {
		return math.NaN()
	}
	years := end.Sub(start).Hours() / (24.0 * 365.25)
	if years <= 0 {
		return math.NaN()
	}
	ratio := endEquity.Div(startEquity).InexactFloat64()
	if ratio <= 0 {
		return math.NaN()
	}
	return math.Pow(ratio, 1.0/years) - 1.0
}

func calcCalmar(cagr, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return math.NaN()
	}
	return cagr / math.Abs(maxDrawdown)
}

type tradeStats struct {
	grossProfit          decimal.Decimal
	grossLoss            decimal.Decimal
	avgWin               decimal.Decimal
	avgLoss              decimal.Decimal
	wins                 int
	losses               int
	maxConsecutiveLosses int
}

// calcTradeStats summarizes closed trades. Gross loss and average loss are
// reported as positive amounts.
func calcTradeStats(trades []types.Trade) tradeStats {
	closed := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen() {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ExitBar.Index < closed[j].ExitBar.Index
	})

	s := tradeStats{grossProfit: decimal.Zero, grossLoss: decimal.Zero, avgWin: decimal.Zero, avgLoss: decimal.Zero}
	streak := 0
	for _, t := range closed {
		p := t.Profit()
		switch {
		case p.IsPositive():
			s.grossProfit = s.grossProfit.Add(p)
			s.wins++
			streak = 0
		case p.IsNegative():
			s.grossLoss = s.grossLoss.Add(p.Abs())
			s.losses++
			streak++
			s.maxConsecutiveLosses = max(s.maxConsecutiveLosses, streak)
		default:
			streak = 0
		}
	}
	if s.wins > 0 {
		s.avgWin = s.grossProfit.Div(decimal.NewFromInt(int64(s.wins)))
	}
	if s.losses > 0 {
		s.avgLoss = s.grossLoss.Div(decimal.NewFromInt(int64(s.losses)))
	}
	return s
}

// profitFactor is gross profit over gross loss: +Inf with no losses, NaN with
// no closed P&L at all.
func (s tradeStats) profitFactor() float64 {
	if s.grossLoss.IsZero() {
		if s.grossProfit.IsZero() {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return s.grossProfit.Div(s.grossLoss).InexactFloat64()
}
