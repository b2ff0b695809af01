package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"strategylab/types"
)

var (
	ErrIntervalNotSupported = errors.New("timeframe not supported")
	ErrAssetNotFound        = errors.New("not found in datasource")
	ErrNoCandles            = errors.New("no candles found in datasource")
)

type assetsRepository interface {
	GetAssetByTicker(ctx context.Context, ticker string) (assetRow, error)
}

type candlesRepository interface {
	GetAggregates(ctx context.Context, arg aggregatesParams) ([]aggregateRow, error)
}

// Database serves historical bars from a Postgres/TimescaleDB candles table.
type Database struct {
	assets   assetsRepository
	candles  candlesRepository
	conn     *pgxpool.Pool
	interval types.Interval
	logger   *zap.Logger
}

// NewDatabase connects to dbURL and verifies connectivity. Bars are
// aggregated to interval.
func NewDatabase(ctx context.Context, dbURL string, interval types.Interval, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, ok := bucketToInterval[interval]; !ok {
		return nil, fmt.Errorf("interval %q: %w", interval, ErrIntervalNotSupported)
	}
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	q := &queries{pool: conn}
	return &Database{
		assets:   q,
		candles:  q,
		conn:     conn,
		interval: interval,
		logger:   logger,
	}, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
