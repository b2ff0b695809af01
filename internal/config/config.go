package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"strategylab/types"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	ProviderCSV      = "csv"
	ProviderPostgres = "postgres"
	ProviderBinance  = "binance"
)

type ProviderConfig struct {
	Kind             string `yaml:"kind"`
	CSVDir           string `yaml:"csv_dir"`
	DatabaseURL      string `yaml:"database_url"`
	BinanceAPIKey    string `yaml:"binance_api_key"`
	BinanceSecretKey string `yaml:"binance_secret_key"`
}

type MonteCarloConfig struct {
	Permutations int   `yaml:"permutations"`
	Workers      int   `yaml:"workers"`
	Seed         int64 `yaml:"seed"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config holds everything the CLI and the HTTP server need to load data and
// run a script.
type Config struct {
	Symbol         string          `yaml:"symbol"`
	Start          time.Time       `yaml:"start"`
	End            time.Time       `yaml:"end"`
	Interval       types.Interval  `yaml:"interval"`
	Lookback       int             `yaml:"lookback"`
	InitialCapital decimal.Decimal `yaml:"initial_capital"`
	RiskFreeRate   float64         `yaml:"risk_free_rate"`
	Script         string          `yaml:"script"`

	Provider   ProviderConfig   `yaml:"provider"`
	MonteCarlo MonteCarloConfig `yaml:"monte_carlo"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

func Default() Config {
	return Config{
		Symbol:         "AAPL",
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       types.Day,
		Lookback:       50,
		InitialCapital: decimal.NewFromInt(10000),
		Script:         "strategies/sma_crossover.strat",
		Provider: ProviderConfig{
			Kind:   ProviderCSV,
			CSVDir: "data",
		},
		MonteCarlo: MonteCarloConfig{
			Permutations: 100,
			Workers:      4,
			Seed:         1,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Provider.DatabaseURL = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Provider.BinanceAPIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		c.Provider.BinanceSecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Symbol) == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if !c.End.After(c.Start) {
		errs = append(errs, fmt.Errorf("end %s must be after start %s",
			c.End.Format(time.DateOnly), c.Start.Format(time.DateOnly)))
	}
	if _, err := types.ParseInterval(string(c.Interval)); err != nil {
		errs = append(errs, err)
	}
	if c.Lookback < 0 {
		errs = append(errs, errors.New("lookback must not be negative"))
	}
	if !c.InitialCapital.IsPositive() {
		errs = append(errs, errors.New("initial_capital must be positive"))
	}
	switch c.Provider.Kind {
	case ProviderCSV:
		if c.Provider.CSVDir == "" {
			errs = append(errs, errors.New("provider.csv_dir is required"))
		}
	case ProviderPostgres:
		if c.Provider.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres provider"))
		}
	case ProviderBinance:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider.Kind))
	}
	if c.MonteCarlo.Permutations < 0 {
		errs = append(errs, errors.New("monte_carlo.permutations must not be negative"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
