package types

import "github.com/shopspring/decimal"

type Trade struct {
	ID        int64
	EntryBar  Bar
	Direction Direction
	Quantity  int64
	ExitBar   *Bar
	Label     string
}

func (t *Trade) IsOpen() bool {
	return t.ExitBar == nil
}

// Profit is the realized profit of a closed trade, measured open to open.
// Open trades report zero; use ProfitAt for a mark-to-market value.
func (t *Trade) Profit() decimal.Decimal {
	if t.ExitBar == nil {
		return decimal.Zero
	}
	return t.ProfitAt(*t.ExitBar)
}

// ProfitAt values the trade against the open of the given bar.
func (t *Trade) ProfitAt(bar Bar) decimal.Decimal {
	diff := bar.Open.Sub(t.EntryBar.Open)
	return diff.Mul(decimal.NewFromInt(t.Direction.Sign() * t.Quantity))
}
