package engine

import (
	"context"
	"fmt"
	"time"

	"strategylab/internal/calendar"
	"strategylab/internal/series"
)

// BarProvider retrieves historical bars for a symbol between two dates,
// both inclusive.
type BarProvider interface {
	GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error)
}

// LoadSeries fetches the bars for [start, end] plus lookback business days
// before start, and returns the series with the index of the first bar on or
// after start. Provider failures are reported as ErrNoData.
func LoadSeries(ctx context.Context, provider BarProvider, cal calendar.Calendar, symbol string, start, end time.Time, lookback int) (*series.Series, int, error) {
	if lookback < 0 {
		return nil, 0, fmt.Errorf("lookback %d: %w", lookback, ErrInvalidArgument)
	}
	if end.Before(start) {
		return nil, 0, fmt.Errorf("end %s before start %s: %w", end.Format("2006-01-02"), start.Format("2006-01-02"), ErrInvalidArgument)
	}

	// first business day on or after start
	first := cal.NextBusinessDay(cal.PreviousBusinessDay(start))
	from := calendar.ShiftBusinessDays(cal, first, -lookback)

	s, err := provider.GetHistoricalData(ctx, symbol, from, end)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w: %v", symbol, ErrNoData, err)
	}
	if s == nil || s.Len() == 0 {
		return nil, 0, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	idx := s.FindIndexAfterDate(first)
	if idx == series.NotFound {
		return nil, 0, fmt.Errorf("%s: no bars on or after %s: %w", symbol, first.Format("2006-01-02"), ErrNoData)
	}
	return s, idx, nil
}
