package engine

import (
	"io"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrintReport writes a human readable summary of r.
func PrintReport(w io.Writer, r *RunResult) {
	p := message.NewPrinter(language.English)

	p.Fprintln(w, "===== Trading Report =====")
	p.Fprintf(w, "Symbol:                %s\n", r.Symbol)
	p.Fprintf(w, "Period:                %s - %s\n", r.FirstBar.Date.Format("2006-01-02"), r.FinalBar.Date.Format("2006-01-02"))
	p.Fprintf(w, "Bars Evaluated:        %d\n", len(r.EquityCurve))
	p.Fprintf(w, "Fills:                 %d\n", len(r.Fills))
	p.Fprintf(w, "Closed Trades:         %d\n", r.ClosedTrades())

	p.Fprintln(w, "\n-- Absolute Performance --")
	p.Fprintf(w, "Net Profit:            %s\n", money(p, r.NetProfit))
	p.Fprintf(w, "Gross Profit:          %s\n", money(p, r.GrossProfit))
	p.Fprintf(w, "Gross Loss:            %s\n", money(p, r.GrossLoss))
	p.Fprintf(w, "Open P&L:              %s\n", money(p, r.OpenPnL))
	p.Fprintf(w, "CAGR:                  %s\n", percent(p, r.CAGR))

	p.Fprintln(w, "\n-- Trade-Level Metrics --")
	p.Fprintf(w, "Avg Win:               %s\n", money(p, r.AvgWin))
	p.Fprintf(w, "Avg Loss:              %s\n", money(p, r.AvgLoss))
	p.Fprintf(w, "Profit Factor:         %s\n", ratio(p, r.ProfitFactor))
	p.Fprintf(w, "Max Consecutive Losses:%d\n", r.MaxConsecutiveLosses)

	p.Fprintln(w, "\n-- Drawdown Metrics --")
	p.Fprintf(w, "Max Drawdown %%:        %s\n", percent(p, r.MaxDrawdown))
	p.Fprintf(w, "Max Run-Up %%:          %s\n", percent(p, r.MaxRunUp))

	p.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	p.Fprintf(w, "Sharpe Ratio:          %s\n", ratio(p, r.SharpeRatio))
	p.Fprintf(w, "Sortino Ratio:         %s\n", ratio(p, r.SortinoRatio))
	p.Fprintf(w, "Calmar Ratio:          %s\n", ratio(p, r.CalmarRatio))
	p.Fprintf(w, "Volatility:            %s\n", percent(p, r.Volatility))

	p.Fprintln(w, "==========================")
}

func money(p *message.Printer, d decimal.Decimal) string {
	return p.Sprintf("%.2f", d.InexactFloat64())
}

func ratio(p *message.Printer, f float64) string {
	if math.IsNaN(f) {
		return "n/a"
	}
	return p.Sprintf("%.4f", f)
}

func percent(p *message.Printer, f float64) string {
	if math.IsNaN(f) {
		return "n/a"
	}
	return p.Sprintf("%.2f%%", f*100)
}
