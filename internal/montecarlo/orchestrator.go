package montecarlo

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"strategylab/internal/engine"
	"strategylab/internal/script"
	"strategylab/internal/series"
)

// Metric names used as keys of Result.Metrics.
const (
	MetricNetProfit   = "netProfit"
	MetricTotalPnL    = "totalPnl"
	MetricMaxDrawdown = "maxDrawdown"
	MetricSharpe      = "sharpeRatio"
	MetricSortino     = "sortinoRatio"
	MetricVolatility  = "volatility"
	MetricCAGR        = "cagr"
	MetricCalmar      = "calmarRatio"
	MetricTradeCount  = "tradeCount"
)

const (
	shortfallTail      = 0.05
	progressBarMinimum = 2
)

type Config struct {
	permutations int
	workers      int
	seed         int64
	progress     io.Writer
}

// NewConfig configures a batch of permutations run on at most workers
// goroutines. Permutation i uses seed+i.
func NewConfig(permutations, workers int, seed int64) *Config {
	return &Config{
		permutations: permutations,
		workers:      max(workers, 1),
		seed:         seed,
	}
}

// WithProgress draws a progress bar on w while the batch runs.
func (c *Config) WithProgress(w io.Writer) *Config {
	c.progress = w
	return c
}

func (c *Config) Permutations() int {
	return c.permutations
}

func (c *Config) Workers() int {
	return c.workers
}

type Result struct {
	BatchID            string             `json:"batchId"`
	Permutations       int                `json:"permutations"`
	Sigma              float64            `json:"sigma"`
	Metrics            map[string]Summary `json:"metrics"`
	ProbabilityOfLoss  float64            `json:"probabilityOfLoss"`
	ExpectedShortfall5 float64            `json:"expectedShortfall5"`
	Equity             Bands              `json:"equity"`
}

type Orchestrator struct {
	cfg    *Config
	logger *zap.Logger
}

func NewOrchestrator(cfg *Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, logger: logger}
}

// Run replays program over cfg.Permutations() synthetic paths of base. The
// first failing permutation aborts the batch and no result is returned.
func (o *Orchestrator) Run(ctx context.Context, base *series.Series, program *script.Program, runCfg *engine.RunConfig) (*Result, error) {
	if o.cfg.permutations < 1 {
		return nil, fmt.Errorf("permutations %d: %w", o.cfg.permutations, engine.ErrInvalidArgument)
	}
	gen, err := NewPathGenerator(base, runCfg.Start())
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	logger := o.logger.With(zap.String("batch_id", batchID))
	logger.Info("monte carlo batch started",
		zap.String("symbol", base.Symbol()),
		zap.Int("permutations", o.cfg.permutations),
		zap.Int("workers", o.cfg.workers),
		zap.Int64("seed", o.cfg.seed),
		zap.Float64("sigma", gen.Sigma()),
	)

	bar := o.progressBar()
	results := make([]*engine.RunResult, o.cfg.permutations)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.workers)
	for i := 0; i < o.cfg.permutations; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			seed := o.cfg.seed + int64(i)
			path, err := gen.Generate(seed)
			if err != nil {
				return fmt.Errorf("permutation %d (seed %d): %w", i, seed, err)
			}
			res, err := engine.Run(path, program, runCfg, logger)
			if err != nil {
				return fmt.Errorf("permutation %d (seed %d): %w", i, seed, err)
			}
			results[i] = res
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("monte carlo batch failed", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	res := aggregate(results)
	res.BatchID = batchID
	res.Sigma = gen.Sigma()
	logger.Info("monte carlo batch finished",
		zap.Float64("median_net_profit", res.Metrics[MetricNetProfit].Median),
		zap.Float64("probability_of_loss", res.ProbabilityOfLoss),
		zap.Float64("expected_shortfall_5", res.ExpectedShortfall5),
	)
	return res, nil
}

func (o *Orchestrator) progressBar() *progressbar.ProgressBar {
	if o.cfg.progress == nil || o.cfg.permutations < progressBarMinimum {
		return nil
	}
	return progressbar.NewOptions(o.cfg.permutations,
		progressbar.OptionSetWriter(o.cfg.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Monte Carlo permutations..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func aggregate(results []*engine.RunResult) *Result {
	n := len(results)
	samples := map[string][]float64{}
	add := func(name string, v float64) {
		samples[name] = append(samples[name], v)
	}
	netProfits := make([]float64, n)
	curves := make([][]float64, n)
	for i, r := range results {
		netProfits[i] = r.NetProfit.InexactFloat64()
		add(MetricNetProfit, netProfits[i])
		add(MetricTotalPnL, r.TotalPnL().InexactFloat64())
		add(MetricMaxDrawdown, r.MaxDrawdown)
		add(MetricSharpe, r.SharpeRatio)
		add(MetricSortino, r.SortinoRatio)
		add(MetricVolatility, r.Volatility)
		add(MetricCAGR, r.CAGR)
		add(MetricCalmar, r.CalmarRatio)
		add(MetricTradeCount, float64(r.ClosedTrades()))

		curve := make([]float64, len(r.EquityCurve))
		for k, e := range r.EquityCurve {
			curve[k] = e.InexactFloat64()
		}
		curves[i] = curve
	}

	metrics := make(map[string]Summary, len(samples))
	for name, values := range samples {
		metrics[name] = Summarize(values)
	}
	return &Result{
		Permutations:       n,
		Metrics:            metrics,
		ProbabilityOfLoss:  probabilityOfLoss(netProfits),
		ExpectedShortfall5: expectedShortfall(netProfits, shortfallTail),
		Equity:             equityBands(curves),
	}
}
