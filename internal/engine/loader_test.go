package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"strategylab/internal/calendar"
	"strategylab/internal/series"
	"strategylab/types"
)

type mockProvider struct {
	bars       []types.Bar
	err        error
	gotStart   time.Time
	gotEnd     time.Time
	gotSymbol  string
	callsCount int
}

func (m *mockProvider) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	m.callsCount++
	m.gotSymbol, m.gotStart, m.gotEnd = symbol, start, end
	if m.err != nil {
		return nil, m.err
	}
	var out []types.Bar
	for _, b := range m.bars {
		if !b.Date.Before(start) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, series.ErrEmptySeries
	}
	return series.New(symbol, out)
}

// weekdayBars returns one bar per weekday in [from, to].
func weekdayBars(from, to time.Time) []types.Bar {
	cal := calendar.NewWeekend()
	var bars []types.Bar
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !cal.IsBusinessDay(d) {
			continue
		}
		p := decimal.NewFromInt(int64(100 + len(bars)))
		bars = append(bars, types.Bar{Date: d, Open: p, High: p, Low: p, Close: p})
	}
	return bars
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoadSeries(t *testing.T) {
	provider := &mockProvider{bars: weekdayBars(day("2024-01-01"), day("2024-03-29"))}

	// Saturday start rolls to Monday 2024-02-05; three business days back is Wednesday 2024-01-31
	s, idx, err := LoadSeries(context.Background(), provider, calendar.NewWeekend(), "AAPL", day("2024-02-03"), day("2024-02-29"), 3)
	if err != nil {
		t.Fatal(err)
	}
	if !provider.gotStart.Equal(day("2024-01-31")) || !provider.gotEnd.Equal(day("2024-02-29")) || provider.gotSymbol != "AAPL" {
		t.Errorf("requested %s %s..%s", provider.gotSymbol, provider.gotStart.Format("2006-01-02"), provider.gotEnd.Format("2006-01-02"))
	}
	if idx != 3 {
		t.Errorf("start index = %d, want 3", idx)
	}
	if got := s.At(idx).Date; !got.Equal(day("2024-02-05")) {
		t.Errorf("start bar date = %s, want 2024-02-05", got.Format("2006-01-02"))
	}
}

func TestLoadSeries_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider *mockProvider
		start    time.Time
		end      time.Time
		lookback int
		wantErr  error
	}{
		{"provider failure", &mockProvider{err: errors.New("connection refused")}, day("2024-02-01"), day("2024-02-10"), 0, ErrNoData},
		{"no bars in range", &mockProvider{}, day("2024-02-01"), day("2024-02-10"), 0, ErrNoData},
		{"nothing after start", &mockProvider{bars: weekdayBars(day("2024-01-01"), day("2024-01-31"))}, day("2024-02-01"), day("2024-02-10"), 10, ErrNoData},
		{"negative lookback", &mockProvider{}, day("2024-02-01"), day("2024-02-10"), -1, ErrInvalidArgument},
		{"end before start", &mockProvider{}, day("2024-02-10"), day("2024-02-01"), 0, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadSeries(context.Background(), tt.provider, calendar.NewWeekend(), "AAPL", tt.start, tt.end, tt.lookback)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
