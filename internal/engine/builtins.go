package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategylab/internal/accumulator"
	"strategylab/internal/script"
	"strategylab/types"
)

// indicator exposes a cached accumulator to scripts.
type indicator struct {
	acc accumulator.Accumulator
}

func (h indicator) Scalar() script.Value {
	switch a := h.acc.(type) {
	case accumulator.NumberSource:
		return script.NumberValue(a.Number())
	case accumulator.BoolSource:
		return script.BoolValue(a.Bool())
	default:
		return script.VoidValue()
	}
}

type builtin func(c *Context) script.Function

var builtins = map[string]builtin{
	"sma":                  (*Context).sma,
	"open":                 fieldFunc(types.FieldOpen),
	"high":                 fieldFunc(types.FieldHigh),
	"low":                  fieldFunc(types.FieldLow),
	"close":                fieldFunc(types.FieldClose),
	"volume":               fieldFunc(types.FieldVolume),
	"crossover":            (*Context).crossover,
	"createOrder":          (*Context).createOrder,
	"createLimitOrder":     (*Context).createLimitOrder,
	"createStopOrder":      (*Context).createStopOrder,
	"createStopLimitOrder": (*Context).createStopLimitOrder,
	"cancelOrders":         (*Context).cancelOrders,
	"position":             (*Context).positionFunc,
}

// registry binds the named built-ins to c. Names without a built-in are left
// out so calling them fails at evaluation time.
func (c *Context) registry(names []string) script.Registry {
	reg := make(script.Registry, len(names))
	for _, name := range names {
		if b, ok := builtins[name]; ok {
			reg[name] = b(c)
		}
	}
	return reg
}

func (c *Context) sma() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return script.VoidValue(), err
		}
		days, err := intArg(args, 0, "days")
		if err != nil {
			return script.VoidValue(), err
		}
		if days < 1 {
			return script.VoidValue(), fmt.Errorf("days must be positive, got %d: %w", days, ErrInvalidArgument)
		}
		acc, err := c.cache.GetOrCreate(accumulator.SMAKey(int(days)), func() (accumulator.Accumulator, error) {
			return accumulator.NewSMA(c.series, c.index, int(days))
		})
		if err != nil {
			return script.VoidValue(), err
		}
		return script.HandleValue(indicator{acc: acc}), nil
	}
}

func fieldFunc(f types.Field) builtin {
	return func(c *Context) script.Function {
		return func(args []script.Value) (script.Value, error) {
			if err := arity(args, 0, 1); err != nil {
				return script.VoidValue(), err
			}
			var lookback int64
			if len(args) == 1 {
				n, err := intArg(args, 0, "lookback")
				if err != nil {
					return script.VoidValue(), err
				}
				if n < 0 {
					return script.VoidValue(), fmt.Errorf("lookback %d: %w: %w", n, ErrInvalidArgument, accumulator.ErrNegativeLookback)
				}
				lookback = n
			}
			acc, err := c.cache.GetOrCreate(accumulator.FieldKey(f, int(lookback)), func() (accumulator.Accumulator, error) {
				return accumulator.NewField(c.series, c.index, f, int(lookback))
			})
			if err != nil {
				return script.VoidValue(), err
			}
			return script.HandleValue(indicator{acc: acc}), nil
		}
	}
}

func (c *Context) crossover() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 2, 2); err != nil {
			return script.VoidValue(), err
		}
		a, err := numberSourceArg(args, 0)
		if err != nil {
			return script.VoidValue(), err
		}
		b, err := numberSourceArg(args, 1)
		if err != nil {
			return script.VoidValue(), err
		}
		acc, err := c.cache.GetOrCreate(accumulator.CrossoverKey(a.Key(), b.Key()), func() (accumulator.Accumulator, error) {
			return accumulator.NewCrossover(a, b), nil
		})
		if err != nil {
			return script.VoidValue(), err
		}
		return script.HandleValue(indicator{acc: acc}), nil
	}
}

func (c *Context) createOrder() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 3, 3); err != nil {
			return script.VoidValue(), err
		}
		return c.placeOrder(args, types.TypeMarket, decimal.Zero, decimal.Zero)
	}
}

func (c *Context) createLimitOrder() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 4, 4); err != nil {
			return script.VoidValue(), err
		}
		limit, err := priceArg(args, 3, "limit")
		if err != nil {
			return script.VoidValue(), err
		}
		return c.placeOrder(args, types.TypeLimit, limit, decimal.Zero)
	}
}

func (c *Context) createStopOrder() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 4, 4); err != nil {
			return script.VoidValue(), err
		}
		stop, err := priceArg(args, 3, "stop")
		if err != nil {
			return script.VoidValue(), err
		}
		return c.placeOrder(args, types.TypeStop, decimal.Zero, stop)
	}
}

func (c *Context) createStopLimitOrder() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 5, 5); err != nil {
			return script.VoidValue(), err
		}
		stop, err := priceArg(args, 3, "stop")
		if err != nil {
			return script.VoidValue(), err
		}
		limit, err := priceArg(args, 4, "limit")
		if err != nil {
			return script.VoidValue(), err
		}
		return c.placeOrder(args, types.TypeStopLimit, limit, stop)
	}
}

// placeOrder reads the shared (label, isBuy, quantity) prefix and queues the
// order for the next bar.
func (c *Context) placeOrder(args []script.Value, orderType types.OrderType, limit, stop decimal.Decimal) (script.Value, error) {
	label, ok := args[0].Unwrap().Str()
	if !ok {
		return script.VoidValue(), fmt.Errorf("label must be a string, got %s: %w", args[0].Kind(), ErrInvalidArgument)
	}
	isBuy, ok := args[1].Unwrap().Bool()
	if !ok {
		return script.VoidValue(), fmt.Errorf("isBuy must be a bool, got %s: %w", args[1].Kind(), ErrInvalidArgument)
	}
	qty, err := intArg(args, 2, "quantity")
	if err != nil {
		return script.VoidValue(), err
	}
	if qty <= 0 {
		return script.VoidValue(), fmt.Errorf("quantity must be positive, got %d: %w", qty, ErrInvalidArgument)
	}
	side := types.SideTypeSell
	if isBuy {
		side = types.SideTypeBuy
	}
	o := c.orders.add(side, orderType, limit, stop, qty, label, c.index)
	c.logger.Debug("order created",
		zap.Int64("order_id", o.ID),
		zap.String("label", label),
		zap.String("side", string(side)),
		zap.String("type", string(orderType)),
		zap.Int64("quantity", qty),
		zap.Int("bar", c.index),
	)
	return script.VoidValue(), nil
}

func (c *Context) cancelOrders() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return script.VoidValue(), err
		}
		label, ok := args[0].Unwrap().Str()
		if !ok {
			return script.VoidValue(), fmt.Errorf("label must be a string, got %s: %w", args[0].Kind(), ErrInvalidArgument)
		}
		return script.IntValue(int64(c.orders.cancel(label))), nil
	}
}

func (c *Context) positionFunc() script.Function {
	return func(args []script.Value) (script.Value, error) {
		if err := arity(args, 0, 0); err != nil {
			return script.VoidValue(), err
		}
		return script.IntValue(c.position.signedQuantity()), nil
	}
}

func arity(args []script.Value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("want %d arguments, got %d: %w", lo, len(args), ErrInvalidArgument)
		}
		return fmt.Errorf("want %d to %d arguments, got %d: %w", lo, hi, len(args), ErrInvalidArgument)
	}
	return nil
}

func intArg(args []script.Value, i int, name string) (int64, error) {
	d, ok := args[i].Unwrap().Number()
	if !ok {
		return 0, fmt.Errorf("%s must be a number, got %s: %w", name, args[i].Kind(), ErrInvalidArgument)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%s must be an integer, got %s: %w", name, d, ErrInvalidArgument)
	}
	return d.IntPart(), nil
}

func priceArg(args []script.Value, i int, name string) (decimal.Decimal, error) {
	d, ok := args[i].Unwrap().Number()
	if !ok {
		return decimal.Zero, fmt.Errorf("%s must be a number, got %s: %w", name, args[i].Kind(), ErrInvalidArgument)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s: %w", name, d, ErrInvalidArgument)
	}
	return d.Round(types.PriceDecimals), nil
}

func numberSourceArg(args []script.Value, i int) (accumulator.NumberSource, error) {
	h, ok := args[i].Handle()
	if !ok {
		return nil, fmt.Errorf("argument %d must be an indicator, got %s: %w", i+1, args[i].Kind(), ErrInvalidArgument)
	}
	ind, ok := h.(indicator)
	if !ok {
		return nil, fmt.Errorf("argument %d: unknown handle %T: %w", i+1, h, ErrInvalidArgument)
	}
	src, ok := ind.acc.(accumulator.NumberSource)
	if !ok {
		return nil, fmt.Errorf("argument %d: %s is not numeric: %w", i+1, ind.acc.Key(), ErrInvalidArgument)
	}
	return src, nil
}
