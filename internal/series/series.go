package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"strategylab/types"
)

// NotFound is returned by the index lookups when no bar qualifies.
const NotFound = -1

var (
	ErrEmptySeries         = errors.New("series has no bars")
	ErrUnorderedDates      = errors.New("bar dates must be strictly increasing")
	ErrInsufficientHistory = errors.New("not enough history for lookback")
	ErrIndexOutOfRange     = errors.New("bar index out of range")
)

// Series is an immutable, date-ordered run of bars for one symbol.
type Series struct {
	symbol string
	bars   []types.Bar
}

// New validates the bars, rounds their prices and renumbers them from 0.
// The input slice is not retained.
func New(symbol string, bars []types.Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	out := make([]types.Bar, len(bars))
	for i, b := range bars {
		b.Date = truncateDay(b.Date)
		if i > 0 && !b.Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("bar %d (%s): %w", i, b.Date.Format(time.DateOnly), ErrUnorderedDates)
		}
		out[i] = types.NewBar(i, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return &Series{symbol: symbol, bars: out}, nil
}

func (s *Series) Symbol() string {
	return s.symbol
}

func (s *Series) Len() int {
	return len(s.bars)
}

func (s *Series) At(i int) types.Bar {
	return s.bars[i]
}

func (s *Series) First() types.Bar {
	return s.bars[0]
}

func (s *Series) Last() types.Bar {
	return s.bars[len(s.bars)-1]
}

// Bars returns a copy of the underlying bars.
func (s *Series) Bars() []types.Bar {
	return append([]types.Bar(nil), s.bars...)
}

// Window returns the n bars ending at (and including) end.
func (s *Series) Window(end, n int) ([]types.Bar, error) {
	if end < 0 || end >= len(s.bars) {
		return nil, fmt.Errorf("index %d: %w", end, ErrIndexOutOfRange)
	}
	if n < 1 || end-n+1 < 0 {
		return nil, fmt.Errorf("%d bars ending at %d: %w", n, end, ErrInsufficientHistory)
	}
	return s.bars[end-n+1 : end+1], nil
}

// FindIndexByDate returns the index of the bar on the calendar date of d, or NotFound.
func (s *Series) FindIndexByDate(d time.Time) int {
	d = truncateDay(d)
	i := sort.Search(len(s.bars), func(i int) bool { return !s.bars[i].Date.Before(d) })
	if i < len(s.bars) && s.bars[i].Date.Equal(d) {
		return i
	}
	return NotFound
}

// FindIndexBeforeDate returns the last bar on or before d.
// It is NotFound only when d precedes the whole series.
func (s *Series) FindIndexBeforeDate(d time.Time) int {
	d = truncateDay(d)
	i := sort.Search(len(s.bars), func(i int) bool { return s.bars[i].Date.After(d) })
	return i - 1
}

// FindIndexAfterDate returns the first bar on or after d.
// It is NotFound only when d follows the whole series.
func (s *Series) FindIndexAfterDate(d time.Time) int {
	d = truncateDay(d)
	i := sort.Search(len(s.bars), func(i int) bool { return !s.bars[i].Date.Before(d) })
	if i == len(s.bars) {
		return NotFound
	}
	return i
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
