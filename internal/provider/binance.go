package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"strategylab/internal/series"
	"strategylab/types"
)

var ErrIntervalNotSupported = errors.New("interval not supported by provider")

// maxKlines is the largest page the futures klines endpoint returns.
const maxKlines = 1500

var binanceIntervals = map[types.Interval]string{
	types.Day:  "1d",
	types.Week: "1w",
}

type klineSource interface {
	Klines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]*futures.Kline, error)
}

type futuresKlines struct {
	client *futures.Client
}

func (f futuresKlines) Klines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]*futures.Kline, error) {
	return f.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startTime).
		EndTime(endTime).
		Limit(limit).
		Do(ctx)
}

// BinanceProvider downloads futures klines and converts them to bars.
type BinanceProvider struct {
	source      klineSource
	rateLimiter *rate.Limiter
	interval    string
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
}

func NewBinanceProvider(apiKey, secretKey string, interval types.Interval, logger *zap.Logger) (*BinanceProvider, error) {
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	client := futures.NewClient(apiKey, secretKey)
	client.HTTPClient = httpClient

	return newBinanceProvider(futuresKlines{client: client}, interval, logger)
}

func newBinanceProvider(source klineSource, interval types.Interval, logger *zap.Logger) (*BinanceProvider, error) {
	code, ok := binanceIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("%q: %w", interval, ErrIntervalNotSupported)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinanceProvider{
		source: source,
		// 10 requests per second with burst of 20
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		interval:    code,
		maxRetries:  3,
		backoff:     100 * time.Millisecond,
		logger:      logger,
	}, nil
}

func (p *BinanceProvider) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	var bars []types.Bar
	for cursor := startMs; cursor <= endMs; {
		klines, err := p.getKlines(ctx, symbol, cursor, endMs)
		if err != nil {
			return nil, fmt.Errorf("%s klines: %w", symbol, err)
		}
		for _, k := range klines {
			bar, err := klineToBar(len(bars), k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", symbol, err)
			}
			bars = append(bars, bar)
		}
		p.logger.Debug("fetched klines",
			zap.String("symbol", symbol),
			zap.String("interval", p.interval),
			zap.Int("count", len(klines)),
			zap.Time("from", time.UnixMilli(cursor).UTC()),
		)
		if len(klines) < maxKlines {
			break
		}
		cursor = klines[len(klines)-1].OpenTime + 1
	}
	return inRange(symbol, bars, start, end)
}

// getKlines retries failed calls with exponential backoff.
func (p *BinanceProvider) getKlines(ctx context.Context, symbol string, startMs, endMs int64) ([]*futures.Kline, error) {
	for attempt := 0; ; attempt++ {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		klines, err := p.source.Klines(ctx, symbol, p.interval, startMs, endMs, maxKlines)
		if err == nil {
			return klines, nil
		}
		if attempt == p.maxRetries {
			return nil, err
		}
		p.logger.Warn("klines request failed, retrying",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * p.backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

func klineToBar(index int, k *futures.Kline) (types.Bar, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	values := make([]decimal.Decimal, len(fields))
	for i, s := range fields {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return types.Bar{}, fmt.Errorf("kline at %d: %w: %q", k.OpenTime, ErrMalformedRow, s)
		}
		values[i] = v
	}
	date := time.UnixMilli(k.OpenTime).UTC()
	return types.NewBar(index, date, values[0], values[1], values[2], values[3], values[4]), nil
}
