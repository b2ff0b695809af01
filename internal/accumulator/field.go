package accumulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"strategylab/internal/series"
	"strategylab/types"
)

// Field reads one OHLCV component a fixed number of bars back.
type Field struct {
	series   *series.Series
	field    types.Field
	lookback int
	cursor   int
}

func NewField(s *series.Series, end int, f types.Field, lookback int) (*Field, error) {
	if lookback < 0 {
		return nil, fmt.Errorf("%s(%d): %w", f, lookback, ErrNegativeLookback)
	}
	if end-lookback < 0 {
		return nil, fmt.Errorf("%s(%d) at bar %d: %w", f, lookback, end, series.ErrInsufficientHistory)
	}
	return &Field{series: s, field: f, lookback: lookback, cursor: end}, nil
}

func (a *Field) Key() Key {
	return FieldKey(a.field, a.lookback)
}

func (a *Field) Roll(bar types.Bar) error {
	if bar.Index-a.lookback < 0 {
		return fmt.Errorf("%s(%d) at bar %d: %w", a.field, a.lookback, bar.Index, series.ErrInsufficientHistory)
	}
	a.cursor = bar.Index
	return nil
}

func (a *Field) Number() decimal.Decimal {
	return a.series.At(a.cursor - a.lookback).Get(a.field)
}

func (a *Field) Clone() Accumulator {
	c := *a
	return &c
}
