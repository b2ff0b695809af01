package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"strategylab/internal/api"
	"strategylab/internal/calendar"
	"strategylab/internal/config"
	"strategylab/internal/engine"
	"strategylab/internal/montecarlo"
	"strategylab/internal/provider"
	"strategylab/internal/repository"
	"strategylab/internal/script"
)

const (
	modeBacktest   = "backtest"
	modeMonteCarlo = "montecarlo"
	modeServe      = "serve"
)

var errUnknownMode = errors.New("unknown mode")

type options struct {
	configPath string
	mode       string
	scriptPath string
	tradesPath string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("backtester", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.mode, "mode", modeBacktest, "backtest, montecarlo or serve")
	fs.StringVar(&opts.scriptPath, "script", "", "strategy script, overrides the config")
	fs.StringVar(&opts.tradesPath, "trades", "", "write the trade list to this CSV file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	switch opts.mode {
	case modeBacktest, modeMonteCarlo, modeServe:
	default:
		return options{}, fmt.Errorf("%w: %q", errUnknownMode, opts.mode)
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.scriptPath != "" {
		cfg.Script = opts.scriptPath
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bars, closeProvider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	if opts.mode == modeServe {
		return serve(ctx, cfg, bars, logger)
	}

	src, err := os.ReadFile(cfg.Script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	program, err := script.Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Script, err)
	}

	s, start, err := engine.LoadSeries(ctx, bars, calendar.NewWeekend(), cfg.Symbol, cfg.Start, cfg.End, cfg.Lookback)
	if err != nil {
		return err
	}
	runCfg := engine.NewRunConfig(cfg.InitialCapital, start).WithRiskFreeRate(cfg.RiskFreeRate)
	logger.Info("loaded series",
		zap.String("symbol", s.Symbol()),
		zap.Int("bars", s.Len()),
		zap.Int("start", start),
	)

	if opts.mode == modeMonteCarlo {
		mcCfg := montecarlo.NewConfig(cfg.MonteCarlo.Permutations, cfg.MonteCarlo.Workers, cfg.MonteCarlo.Seed).
			WithProgress(os.Stderr)
		result, err := montecarlo.NewOrchestrator(mcCfg, logger).Run(ctx, s, program, runCfg)
		if err != nil {
			return err
		}
		montecarlo.PrintReport(out, result)
		return nil
	}

	result, err := engine.Run(s, program, runCfg, logger)
	if err != nil {
		return err
	}
	engine.PrintReport(out, result)
	if opts.tradesPath != "" {
		if err := engine.WriteTradesCSVFile(opts.tradesPath, result.Trades); err != nil {
			return err
		}
		logger.Info("wrote trades", zap.String("path", opts.tradesPath), zap.Int("trades", len(result.Trades)))
	}
	return nil
}

func newProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (engine.BarProvider, func(), error) {
	switch cfg.Provider.Kind {
	case config.ProviderPostgres:
		db, err := repository.NewDatabase(ctx, cfg.Provider.DatabaseURL, cfg.Interval, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.ProviderBinance:
		p, err := provider.NewBinanceProvider(cfg.Provider.BinanceAPIKey, cfg.Provider.BinanceSecretKey, cfg.Interval, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	default:
		return provider.NewCSVProvider(cfg.Provider.CSVDir), func() {}, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, bars engine.BarProvider, logger *zap.Logger) error {
	server := api.NewServer(cfg, bars, logger)
	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return server.Shutdown(context.Background())
	}
}
