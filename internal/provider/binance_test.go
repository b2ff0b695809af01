package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategylab/types"
)

var dayMs = (24 * time.Hour).Milliseconds()

type mockKlineSource struct {
	klines   []*futures.Kline
	failures int
	calls    int
}

func (m *mockKlineSource) Klines(_ context.Context, _, _ string, startTime, endTime int64, limit int) ([]*futures.Kline, error) {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("503 service unavailable")
	}
	var out []*futures.Kline
	for _, k := range m.klines {
		if k.OpenTime < startTime || k.OpenTime > endTime {
			continue
		}
		out = append(out, k)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func dailyKlines(start time.Time, n int) []*futures.Kline {
	klines := make([]*futures.Kline, n)
	for i := range klines {
		openTime := start.UnixMilli() + int64(i)*dayMs
		klines[i] = &futures.Kline{
			OpenTime:  openTime,
			Open:      "100.00",
			High:      "105.005",
			Low:       "95.00",
			Close:     decimal.NewFromInt(int64(100 + i)).String(),
			Volume:    "12.5",
			CloseTime: openTime + dayMs - 1,
		}
	}
	return klines
}

func testProvider(t *testing.T, src klineSource) *BinanceProvider {
	t.Helper()
	p, err := newBinanceProvider(src, types.Day, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	p.backoff = time.Millisecond
	return p
}

func TestBinanceProvider_Paginates(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &mockKlineSource{klines: dailyKlines(start, maxKlines+10)}
	p := testProvider(t, src)

	end := start.AddDate(0, 0, maxKlines+20)
	s, err := p.GetHistoricalData(context.Background(), "BTCUSDT", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != maxKlines+10 {
		t.Fatalf("got %d bars, want %d", s.Len(), maxKlines+10)
	}
	if src.calls != 2 {
		t.Errorf("made %d requests, want 2", src.calls)
	}
	last := s.Last()
	if last.Index != maxKlines+9 || !last.Close.Equal(decimal.NewFromInt(int64(100+maxKlines+9))) {
		t.Errorf("last bar = %+v", last)
	}
	if !s.First().High.Equal(decimal.RequireFromString("105.01")) {
		t.Errorf("high = %s, want 105.01", s.First().High)
	}
}

func TestBinanceProvider_Retries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"should succeed first time", 0, 1, false},
		{"should recover after retries", 3, 4, false},
		{"should give up after max retries", 4, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockKlineSource{klines: dailyKlines(start, 5), failures: tt.failures}
			p := testProvider(t, src)
			_, err := p.GetHistoricalData(context.Background(), "ETHUSDT", start, start.AddDate(0, 0, 10))
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetHistoricalData() error = %v, wantErr %v", err, tt.wantErr)
			}
			if src.calls != tt.wantCalls {
				t.Errorf("made %d requests, want %d", src.calls, tt.wantCalls)
			}
		})
	}
}

func TestBinanceProvider_Errors(t *testing.T) {
	if _, err := newBinanceProvider(&mockKlineSource{}, types.Hour, nil); !errors.Is(err, ErrIntervalNotSupported) {
		t.Errorf("hourly interval error = %v", err)
	}

	bad := dailyKlines(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	bad[0].Close = "n/a"
	p := testProvider(t, &mockKlineSource{klines: bad})
	_, err := p.GetHistoricalData(context.Background(), "BTCUSDT", time.Unix(0, 0), time.Now())
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("malformed kline error = %v", err)
	}

	p = testProvider(t, &mockKlineSource{})
	_, err = p.GetHistoricalData(context.Background(), "BTCUSDT", time.Unix(0, 0), time.Now())
	if !errors.Is(err, ErrNoBars) {
		t.Errorf("empty response error = %v", err)
	}
}
