package accumulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"strategylab/internal/series"
	"strategylab/types"
)

// SMA is a simple moving average of closes kept as a running sum over a ring
// of the last days values.
type SMA struct {
	days   int
	window []decimal.Decimal
	head   int
	sum    decimal.Decimal
}

// NewSMA seeds the average with the days bars ending at end.
func NewSMA(s *series.Series, end, days int) (*SMA, error) {
	if days < 1 {
		return nil, fmt.Errorf("sma(%d): %w", days, ErrInvalidWindow)
	}
	bars, err := s.Window(end, days)
	if err != nil {
		return nil, fmt.Errorf("sma(%d): %w", days, err)
	}
	a := &SMA{days: days, window: make([]decimal.Decimal, days), sum: decimal.Zero}
	for i, b := range bars {
		a.window[i] = b.Close
		a.sum = a.sum.Add(b.Close)
	}
	return a, nil
}

func (a *SMA) Key() Key {
	return SMAKey(a.days)
}

func (a *SMA) Roll(bar types.Bar) error {
	a.sum = a.sum.Sub(a.window[a.head]).Add(bar.Close)
	a.window[a.head] = bar.Close
	a.head = (a.head + 1) % a.days
	return nil
}

func (a *SMA) Number() decimal.Decimal {
	return a.sum.Div(decimal.NewFromInt(int64(a.days)))
}

func (a *SMA) Clone() Accumulator {
	c := *a
	c.window = append([]decimal.Decimal(nil), a.window...)
	return &c
}
