package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategylab/internal/calendar"
	"strategylab/internal/config"
	"strategylab/internal/engine"
	"strategylab/internal/montecarlo"
	"strategylab/internal/script"
	"strategylab/internal/series"
)

const maxPermutations = 10000

var errBadRequest = errors.New("bad request")

type backtestRequest struct {
	Symbol         string           `json:"symbol"`
	Start          string           `json:"start"`
	End            string           `json:"end"`
	Lookback       *int             `json:"lookback"`
	InitialCapital *decimal.Decimal `json:"initialCapital"`
	RiskFreeRate   *float64         `json:"riskFreeRate"`
	Script         string           `json:"script" binding:"required"`
}

type monteCarloRequest struct {
	backtestRequest
	Permutations int    `json:"permutations"`
	Workers      int    `json:"workers"`
	Seed         *int64 `json:"seed"`
}

type Handler struct {
	cfg      *config.Config
	provider engine.BarProvider
	cal      calendar.Calendar
	logger   *zap.Logger
}

func NewHandler(cfg *config.Config, provider engine.BarProvider, cal calendar.Calendar, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, provider: provider, cal: cal, logger: logger}
}

// Backtest runs the posted script once over the requested range.
func (h *Handler) Backtest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s, program, runCfg, err := h.prepare(c, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	result, err := engine.Run(s, program, runCfg, h.logger)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": newRunResultDTO(result),
	})
}

// MonteCarlo runs the posted script over synthetic permutations of the
// requested range and returns the aggregated distributions.
func (h *Handler) MonteCarlo(c *gin.Context) {
	var req monteCarloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	permutations := req.Permutations
	if permutations == 0 {
		permutations = h.cfg.MonteCarlo.Permutations
	}
	if permutations < 1 || permutations > maxPermutations {
		h.fail(c, fmt.Errorf("%w: permutations must be between 1 and %d", errBadRequest, maxPermutations))
		return
	}
	workers := req.Workers
	if workers == 0 {
		workers = h.cfg.MonteCarlo.Workers
	}
	seed := h.cfg.MonteCarlo.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	s, program, runCfg, err := h.prepare(c, req.backtestRequest)
	if err != nil {
		h.fail(c, err)
		return
	}
	orchestrator := montecarlo.NewOrchestrator(montecarlo.NewConfig(permutations, workers, seed), h.logger)
	result, err := orchestrator.Run(c.Request.Context(), s, program, runCfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": newMonteCarloDTO(result),
	})
}

func (h *Handler) prepare(c *gin.Context, req backtestRequest) (*series.Series, *script.Program, *engine.RunConfig, error) {
	program, err := script.Parse(req.Script)
	if err != nil {
		return nil, nil, nil, err
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = h.cfg.Symbol
	}
	start, err := parseDate(req.Start, h.cfg.Start)
	if err != nil {
		return nil, nil, nil, err
	}
	end, err := parseDate(req.End, h.cfg.End)
	if err != nil {
		return nil, nil, nil, err
	}
	lookback := h.cfg.Lookback
	if req.Lookback != nil {
		lookback = *req.Lookback
	}
	capital := h.cfg.InitialCapital
	if req.InitialCapital != nil {
		capital = *req.InitialCapital
	}
	if !capital.IsPositive() {
		return nil, nil, nil, fmt.Errorf("%w: initialCapital must be positive", errBadRequest)
	}
	riskFree := h.cfg.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}

	s, startIndex, err := engine.LoadSeries(c.Request.Context(), h.provider, h.cal, symbol, start, end, lookback)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, program, engine.NewRunConfig(capital, startIndex).WithRiskFreeRate(riskFree), nil
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", errBadRequest, s)
	}
	return t, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("id", c.GetString(requestIDHeader)), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, script.ErrSyntax):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, script.ErrEval),
		errors.Is(err, engine.ErrInvalidArgument),
		errors.Is(err, engine.ErrCloseExceedsOpen),
		errors.Is(err, series.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
