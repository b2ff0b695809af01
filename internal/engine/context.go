package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategylab/internal/accumulator"
	"strategylab/internal/script"
	"strategylab/internal/series"
	"strategylab/types"
)

// Context owns the complete mutable state of one replay. It must not be
// shared between goroutines.
type Context struct {
	series    *series.Series
	cfg       *RunConfig
	cache     *accumulator.Cache
	orders    *orderBook
	position  *position
	equity    *equityTracker
	fills     []types.Fill
	index     int
	evaluator *script.Evaluator
	logger    *zap.Logger
}

// NewContext prepares a replay of program over s. Only the built-ins the
// program references are registered.
func NewContext(s *series.Series, program *script.Program, cfg *RunConfig, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Context{
		series:   s,
		cfg:      cfg,
		cache:    accumulator.NewCache(),
		orders:   newOrderBook(s.Symbol()),
		position: newPosition(),
		equity:   &equityTracker{},
		index:    cfg.Start(),
		logger:   logger,
	}
	c.evaluator = script.NewEvaluator(program, c.registry(program.FunctionNames()))
	return c
}

func (c *Context) Bar() types.Bar {
	return c.series.At(c.index)
}

// Step advances to bar index i: it fills open orders against the bar, rolls
// the indicators, records equity and runs the script.
func (c *Context) Step(i int) error {
	c.index = i
	bar := c.series.At(i)

	if err := c.rollOrders(bar); err != nil {
		return fmt.Errorf("bar %d: %w", i, err)
	}
	if err := c.cache.Roll(bar); err != nil {
		return fmt.Errorf("bar %d: %w", i, err)
	}
	c.equity.record(c.cfg.InitialCapital().Add(c.position.realized()).Add(c.position.unrealized(bar)))

	if err := c.evaluator.Run(); err != nil {
		return fmt.Errorf("bar %d (%s): %w", i, bar.Date.Format("2006-01-02"), err)
	}
	return nil
}

func (c *Context) rollOrders(bar types.Bar) error {
	for _, o := range c.orders.open() {
		price, ok := fillPrice(o, bar)
		if !ok {
			continue
		}
		o.Status = types.OrderFilled
		o.FillPrice = decimal.NewNullDecimal(price)
		o.FillDate = bar.Date
		fill := types.NewFill(o, price, bar)
		if err := c.position.applyFill(fill, bar); err != nil {
			return fmt.Errorf("order %d (%s): %w", o.ID, o.Label, err)
		}
		c.fills = append(c.fills, fill)
		c.logger.Debug("order filled",
			zap.Int64("order_id", o.ID),
			zap.String("label", o.Label),
			zap.String("side", string(o.Side)),
			zap.String("type", string(o.OrderType)),
			zap.Int64("quantity", o.Quantity),
			zap.String("price", price.String()),
			zap.Time("date", bar.Date),
		)
	}
	return nil
}
