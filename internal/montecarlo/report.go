package montecarlo

import (
	"io"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var reportMetrics = []struct {
	name    string
	label   string
	percent bool
}{
	{MetricNetProfit, "Net Profit", false},
	{MetricTotalPnL, "Total P&L", false},
	{MetricMaxDrawdown, "Max Drawdown", true},
	{MetricSharpe, "Sharpe Ratio", false},
	{MetricSortino, "Sortino Ratio", false},
	{MetricVolatility, "Volatility", true},
	{MetricCAGR, "CAGR", true},
	{MetricCalmar, "Calmar Ratio", false},
	{MetricTradeCount, "Closed Trades", false},
}

// PrintReport writes the distribution of every metric as a table.
func PrintReport(w io.Writer, r *Result) {
	p := message.NewPrinter(language.English)

	p.Fprintln(w, "===== Monte Carlo Report =====")
	p.Fprintf(w, "Batch:                 %s\n", r.BatchID)
	p.Fprintf(w, "Permutations:          %d\n", r.Permutations)
	p.Fprintf(w, "Daily Sigma:           %s\n", number(p, r.Sigma, false))
	p.Fprintf(w, "Probability of Loss:   %s\n", number(p, r.ProbabilityOfLoss, true))
	p.Fprintf(w, "Expected Shortfall 5%%: %s\n", number(p, r.ExpectedShortfall5, false))

	p.Fprintf(w, "\n%-15s %12s %12s %12s %12s %12s %12s %6s\n", "Metric", "Mean", "P5", "P25", "Median", "P75", "P95", "N")
	for _, m := range reportMetrics {
		s, ok := r.Metrics[m.name]
		if !ok {
			continue
		}
		p.Fprintf(w, "%-15s %12s %12s %12s %12s %12s %12s %6d\n", m.label,
			number(p, s.Mean, m.percent),
			number(p, s.P5, m.percent),
			number(p, s.P25, m.percent),
			number(p, s.Median, m.percent),
			number(p, s.P75, m.percent),
			number(p, s.P95, m.percent),
			s.Samples,
		)
	}
	p.Fprintln(w, "==============================")
}

func number(p *message.Printer, f float64, percent bool) string {
	switch {
	case math.IsNaN(f):
		return "n/a"
	case percent:
		return p.Sprintf("%.2f%%", f*100)
	default:
		return p.Sprintf("%.4f", f)
	}
}
