package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill records the simulated execution of an order against a bar.
type Fill struct {
	OrderID  int64           `json:"orderId"`
	Label    string          `json:"label"`
	Side     Side            `json:"side"`
	Type     OrderType       `json:"type"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	BarIndex int             `json:"barIndex"`
	Date     time.Time       `json:"date"`
}

func NewFill(order *Order, price decimal.Decimal, bar Bar) Fill {
	return Fill{
		OrderID:  order.ID,
		Label:    order.Label,
		Side:     order.Side,
		Type:     order.OrderType,
		Quantity: order.Quantity,
		Price:    price,
		BarIndex: bar.Index,
		Date:     bar.Date,
	}
}
