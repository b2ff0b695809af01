package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"strategylab/internal/series"
	"strategylab/types"
)

// bucketToInterval lists the buckets a series can hold. Series are keyed by
// calendar day, so intraday buckets are rejected.
var bucketToInterval = map[types.Interval]string{
	types.Day:  "1 day",
	types.Week: "1 week",
}

// GetAggregates returns the asset's candles bucketed to interval between
// start and end, both inclusive.
func (db *Database) GetAggregates(ctx context.Context, assetID int, interval types.Interval, start, end time.Time) ([]types.Bar, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}
	rows, err := db.candles.GetAggregates(ctx, aggregatesParams{
		TimeBucket: bucket,
		AssetID:    int32(assetID),
		StartTime:  start,
		EndTime:    end,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCandles
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoCandles
	}
	return convertRows(rows), nil
}

// GetHistoricalData loads the bars of symbol at the database's interval.
func (db *Database) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	asset, err := db.GetAssetByTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	bars, err := db.GetAggregates(ctx, asset.Id, db.interval, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	db.logger.Debug("loaded bars from database",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return series.New(symbol, bars)
}

func convertRows(rows []aggregateRow) []types.Bar {
	bars := make([]types.Bar, 0, len(rows))
	for i, r := range rows {
		bars = append(bars, types.NewBar(i, r.Bucket, r.Open, r.High, r.Low, r.Close, r.Volume))
	}
	return bars
}
