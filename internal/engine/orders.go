package engine

import (
	"github.com/shopspring/decimal"

	"strategylab/types"
)

// orderBook holds every order of a run in creation order.
type orderBook struct {
	symbol string
	orders []*types.Order
	nextID int64
}

func newOrderBook(symbol string) *orderBook {
	return &orderBook{symbol: symbol, nextID: 1}
}

func (b *orderBook) add(side types.Side, orderType types.OrderType, limit, stop decimal.Decimal, quantity int64, label string, bar int) *types.Order {
	o := types.NewOrder(b.nextID, b.symbol, side, orderType, limit, stop, quantity, label, bar)
	b.nextID++
	b.orders = append(b.orders, o)
	return o
}

func (b *orderBook) open() []*types.Order {
	var out []*types.Order
	for _, o := range b.orders {
		if o.IsOpen() {
			out = append(out, o)
		}
	}
	return out
}

// cancel cancels the open orders carrying label and returns how many there were.
func (b *orderBook) cancel(label string) int {
	n := 0
	for _, o := range b.orders {
		if o.IsOpen() && o.Label == label {
			o.Status = types.OrderCancelled
			n++
		}
	}
	return n
}

func (b *orderBook) expire() int {
	n := 0
	for _, o := range b.orders {
		if o.IsOpen() {
			o.Status = types.OrderExpired
			n++
		}
	}
	return n
}

func (b *orderBook) all() []types.Order {
	out := make([]types.Order, len(b.orders))
	for i, o := range b.orders {
		out[i] = *o
	}
	return out
}

// fillPrice reports whether order fills against bar and at what price.
func fillPrice(o *types.Order, bar types.Bar) (decimal.Decimal, bool) {
	buy := o.Side == types.SideTypeBuy
	switch o.OrderType {
	case types.TypeMarket:
		return bar.Open, true
	case types.TypeLimit:
		if !limitReached(o, bar) {
			return decimal.Zero, false
		}
		return limitFill(o.LimitPrice, bar.Open, buy), true
	case types.TypeStop:
		if !stopTriggered(o, bar) {
			return decimal.Zero, false
		}
		if buy {
			return decimal.Max(o.StopPrice, bar.Open), true
		}
		return decimal.Min(o.StopPrice, bar.Open), true
	case types.TypeStopLimit:
		if !stopTriggered(o, bar) || !limitReached(o, bar) {
			return decimal.Zero, false
		}
		return limitFill(o.LimitPrice, bar.Open, buy), true
	default:
		return decimal.Zero, false
	}
}

func limitReached(o *types.Order, bar types.Bar) bool {
	if o.Side == types.SideTypeBuy {
		return bar.Low.LessThanOrEqual(o.LimitPrice)
	}
	return bar.High.GreaterThanOrEqual(o.LimitPrice)
}

func stopTriggered(o *types.Order, bar types.Bar) bool {
	if o.Side == types.SideTypeBuy {
		return bar.High.GreaterThanOrEqual(o.StopPrice)
	}
	return bar.Low.LessThanOrEqual(o.StopPrice)
}

func limitFill(limit, open decimal.Decimal, buy bool) decimal.Decimal {
	if buy {
		return decimal.Min(limit, open)
	}
	return decimal.Max(limit, open)
}
