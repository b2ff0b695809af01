package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"strategylab/types"
)

// position tracks the trades of a single symbol. direction and quantity are
// recomputed from the open trades after every fill.
type position struct {
	trades      []*types.Trade
	direction   types.Direction
	quantity    int64
	nextTradeID int64
}

func newPosition() *position {
	return &position{direction: types.DirectionFlat, nextTradeID: 1}
}

func (p *position) applyFill(fill types.Fill, bar types.Bar) error {
	dir := fill.Side.Direction()
	qty := fill.Quantity

	if p.direction != types.DirectionFlat && p.direction != dir {
		closing := min(qty, p.quantity)
		if err := p.close(closing, bar); err != nil {
			return err
		}
		qty -= closing
	}
	if qty > 0 {
		p.open(dir, qty, bar, fill.Label)
	}
	p.recompute()
	return nil
}

func (p *position) open(dir types.Direction, qty int64, bar types.Bar, label string) *types.Trade {
	t := &types.Trade{
		ID:        p.nextTradeID,
		EntryBar:  bar,
		Direction: dir,
		Quantity:  qty,
		Label:     label,
	}
	p.nextTradeID++
	p.trades = append(p.trades, t)
	return t
}

// close exits qty units oldest first, by entry date and then label. A trade
// that is only partly closed is split: the closed part keeps the trade and
// the remainder continues as a new open trade.
func (p *position) close(qty int64, bar types.Bar) error {
	open := p.openTrades()
	var available int64
	for _, t := range open {
		available += t.Quantity
	}
	if qty > available {
		return fmt.Errorf("close %d of %d: %w", qty, available, ErrCloseExceedsOpen)
	}

	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].EntryBar.Date.Equal(open[j].EntryBar.Date) {
			return open[i].EntryBar.Date.Before(open[j].EntryBar.Date)
		}
		return open[i].Label < open[j].Label
	})

	remaining := qty
	for _, t := range open {
		if remaining == 0 {
			break
		}
		if t.Quantity > remaining {
			p.open(t.Direction, t.Quantity-remaining, t.EntryBar, t.Label)
			t.Quantity = remaining
		}
		exit := bar
		t.ExitBar = &exit
		remaining -= t.Quantity
	}
	return nil
}

func (p *position) recompute() {
	p.direction = types.DirectionFlat
	p.quantity = 0
	for _, t := range p.trades {
		if !t.IsOpen() {
			continue
		}
		p.direction = t.Direction
		p.quantity += t.Quantity
	}
}

func (p *position) openTrades() []*types.Trade {
	var out []*types.Trade
	for _, t := range p.trades {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// signedQuantity is positive when long and negative when short.
func (p *position) signedQuantity() int64 {
	return p.direction.Sign() * p.quantity
}

func (p *position) realized() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range p.trades {
		if !t.IsOpen() {
			sum = sum.Add(t.Profit())
		}
	}
	return sum
}

// unrealized marks every open trade to the open of bar.
func (p *position) unrealized(bar types.Bar) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range p.trades {
		if t.IsOpen() {
			sum = sum.Add(t.ProfitAt(bar))
		}
	}
	return sum
}

// snapshot returns closed trades followed by open ones, each in creation order.
func (p *position) snapshot() []types.Trade {
	out := make([]types.Trade, 0, len(p.trades))
	for _, t := range p.trades {
		if !t.IsOpen() {
			out = append(out, copyTrade(t))
		}
	}
	for _, t := range p.trades {
		if t.IsOpen() {
			out = append(out, copyTrade(t))
		}
	}
	return out
}

func copyTrade(t *types.Trade) types.Trade {
	c := *t
	if t.ExitBar != nil {
		exit := *t.ExitBar
		c.ExitBar = &exit
	}
	return c
}
