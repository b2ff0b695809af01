package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"strategylab/internal/series"
	"strategylab/types"
)

var (
	ErrMalformedRow = errors.New("malformed csv row")
	ErrNoBars       = errors.New("no bars in requested range")
)

var csvHeader = []string{"date", "open", "high", "low", "close", "volume"}

// CSVProvider reads daily bars from <dir>/<SYMBOL>.csv files with the
// header date,open,high,low,close,volume and dates formatted YYYY-MM-DD.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) GetHistoricalData(_ context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	f, err := os.Open(filepath.Join(p.dir, strings.ToUpper(symbol)+".csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadBarsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return inRange(symbol, bars, start, end)
}

// ReadBarsCSV parses every row of r. The header row is required.
func ReadBarsCSV(r io.Reader) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, h := range header {
		if !strings.EqualFold(strings.TrimSpace(h), csvHeader[i]) {
			return nil, fmt.Errorf("header column %d is %q, want %q: %w", i, h, csvHeader[i], ErrMalformedRow)
		}
	}

	var bars []types.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		bar, err := parseRecord(len(bars), record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRecord(index int, record []string) (types.Bar, error) {
	date, err := time.Parse(time.DateOnly, record[0])
	if err != nil {
		return types.Bar{}, fmt.Errorf("%w: date %q", ErrMalformedRow, record[0])
	}
	values := make([]decimal.Decimal, 5)
	for i := range values {
		values[i], err = decimal.NewFromString(record[i+1])
		if err != nil {
			return types.Bar{}, fmt.Errorf("%w: %s %q", ErrMalformedRow, csvHeader[i+1], record[i+1])
		}
	}
	return types.NewBar(index, date, values[0], values[1], values[2], values[3], values[4]), nil
}

// inRange keeps the bars dated within [start, end] and builds a series.
func inRange(symbol string, bars []types.Bar, start, end time.Time) (*series.Series, error) {
	kept := make([]types.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%s between %s and %s: %w", symbol,
			start.Format(time.DateOnly), end.Format(time.DateOnly), ErrNoBars)
	}
	return series.New(symbol, kept)
}
